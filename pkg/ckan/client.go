package ckan

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	// Packages
	client "github.com/mutablelogic/go-client"
	version "github.com/mutablelogic/go-datahub/pkg/version"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Client is a CKAN action API client that wraps the base HTTP client
type Client struct {
	*client.Client
	token string
}

// actionResponse is the envelope of every action API response
type actionResponse struct {
	Success bool            `json:"success"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ActionError    `json:"error,omitempty"`
	status  int
}

// envelopeTransport returns failed actions as successful responses, so
// the envelope and its error object are decoded. The original status is
// kept in the statusHeader header.
type envelopeTransport struct {
	next http.RoundTripper
}

var _ client.Unmarshaler = (*actionResponse)(nil)
var _ http.RoundTripper = (*envelopeTransport)(nil)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// ActionPath is the path of the action API relative to the site URL
const ActionPath = "/api/3/action"

const (
	statusHeader  = "X-Action-Status"
	maxErrorBytes = 1 << 20
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a new action API client for the site URL, for example
// "https://demo.ckan.org". The token is sent in the Authorization header
// when not empty.
func New(site, token string, opts ...client.ClientOpt) (*Client, error) {
	c := new(Client)
	endpoint := strings.TrimRight(site, "/") + ActionPath

	// The base transport is replaced before other options wrap it
	if isTruthyEnv("DATAHUB_HTTP1") {
		opts = append([]client.ClientOpt{optHTTP1()}, opts...)
	}
	opts = append(opts,
		client.OptEndpoint(endpoint),
		client.OptUserAgent(version.UserAgent()),
		client.OptTransport(func(next http.RoundTripper) http.RoundTripper {
			return &envelopeTransport{next: next}
		}),
	)
	cl, err := client.New(opts...)
	if err != nil {
		return nil, err
	}
	c.Client = cl
	c.token = token
	return c, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Call posts in as the JSON body of the named action and decodes the result
// into out, which may be nil. A response with success=false returns an
// *ActionError, whatever the status code.
func (c *Client) Call(ctx context.Context, action string, in, out any) error {
	req, err := client.NewJSONRequest(in)
	if err != nil {
		return err
	}

	opts := []client.RequestOpt{client.OptPath(action)}
	if c.token != "" {
		opts = append(opts, client.OptReqHeader("Authorization", c.token))
	}

	var response actionResponse
	if err := c.DoWithContext(ctx, req, &response, opts...); err != nil {
		return err
	} else if !response.Success {
		if response.Error == nil {
			response.Error = &ActionError{Message: "action " + action + " was not successful"}
		}
		response.Error.Status = response.status
		return response.Error
	}

	if out == nil || len(response.Result) == 0 {
		return nil
	}
	return json.Unmarshal(response.Result, out)
}

///////////////////////////////////////////////////////////////////////////////
// INTERFACE IMPLEMENTATION

func (r *actionResponse) Unmarshal(header http.Header, reader io.Reader) error {
	type envelope actionResponse
	if err := json.NewDecoder(reader).Decode((*envelope)(r)); err != nil {
		return err
	}
	if status, err := strconv.Atoi(header.Get(statusHeader)); err == nil {
		r.status = status
	}
	return nil
}

func (t *envelopeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil || resp.StatusCode < http.StatusBadRequest {
		return resp, err
	}

	// Read the body and put it back for whoever decodes it
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(data))
	resp.ContentLength = int64(len(data))

	var envelope struct {
		Success *bool           `json:"success"`
		Error   json.RawMessage `json:"error"`
	}
	if json.Unmarshal(data, &envelope) != nil || envelope.Success == nil || *envelope.Success {
		return resp, nil
	}
	resp.Header.Set(statusHeader, strconv.Itoa(resp.StatusCode))
	resp.StatusCode = http.StatusOK
	resp.Status = strconv.Itoa(http.StatusOK) + " " + http.StatusText(http.StatusOK)
	return resp, nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func isTruthyEnv(key string) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	return v != "" && v != "0" && v != "false" && v != "no" && v != "off"
}

// optHTTP1 disables HTTP/2 negotiation on the client transport
func optHTTP1() client.ClientOpt {
	return func(c *client.Client) error {
		tr, ok := c.Client.Transport.(*http.Transport)
		if ok && tr != nil {
			tr = tr.Clone()
		} else {
			tr = http.DefaultTransport.(*http.Transport).Clone()
		}
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = map[string]func(string, *tls.Conn) http.RoundTripper{}
		c.Client.Transport = tr
		return nil
	}
}
