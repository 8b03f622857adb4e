package lfs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	// Packages
	client "github.com/mutablelogic/go-client"
	schema "github.com/mutablelogic/go-datahub/pkg/schema"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// batchResponse decodes a batch response whatever the content type, since
// servers reply with the LFS media type rather than application/json
type batchResponse struct {
	schema.BatchResponse
}

var _ client.Unmarshaler = (*batchResponse)(nil)

///////////////////////////////////////////////////////////////////////////////
// INTERFACE IMPLEMENTATION

func (r *batchResponse) Unmarshal(_ http.Header, reader io.Reader) error {
	return json.NewDecoder(reader).Decode(&r.BatchResponse)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// batch sends a batch request for one object in the namespace and returns
// the server's instructions for it
func batch(ctx context.Context, c *client.Client, ns schema.Namespace, ref, operation string, token *schema.AuthToken, object schema.BatchObject) (*schema.BatchObjectResponse, error) {
	req := schema.BatchRequest{
		Operation: operation,
		Transfers: []string{schema.LFSTransferBasic},
		Objects:   []schema.BatchObject{object},
	}
	if ref != "" {
		req.Ref = &schema.BatchRef{Name: ref}
	}
	payload, err := newJSONPayload(req)
	if err != nil {
		return nil, err
	}

	var response batchResponse
	if err := c.DoWithContext(ctx, payload, &response,
		client.OptPath(ns.Bucket, ns.Prefix, "objects", "batch"),
		client.OptReqHeader("Authorization", "Bearer "+token.Value),
	); err != nil {
		return nil, err
	}

	if response.Transfer != "" && response.Transfer != schema.LFSTransferBasic {
		return nil, fmt.Errorf("unsupported transfer adapter %q", response.Transfer)
	}
	for i := range response.Objects {
		result := &response.Objects[i]
		if result.OID != object.OID {
			continue
		}
		if result.Error != nil {
			return nil, result.Error
		}
		return result, nil
	}
	return nil, fmt.Errorf("object %s missing from batch response", object.OID)
}

// statusOf returns the HTTP status carried by a batch error, or zero
func statusOf(err error) int {
	var object *schema.BatchError
	var response httpresponse.ErrResponse
	var code httpresponse.Err
	switch {
	case errors.As(err, &object):
		return object.Code
	case errors.As(err, &response):
		return response.Code
	case errors.As(err, &code):
		return int(code)
	default:
		return 0
	}
}
