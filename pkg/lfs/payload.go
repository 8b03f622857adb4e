package lfs

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	// Packages
	client "github.com/mutablelogic/go-client"
	schema "github.com/mutablelogic/go-datahub/pkg/schema"
	types "github.com/mutablelogic/go-server/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// jsonPayload is a POST body in the LFS media type
type jsonPayload struct {
	body *bytes.Reader
}

// putPayload is the body of a basic transfer upload
type putPayload struct {
	body io.Reader
}

var _ client.Payload = (*jsonPayload)(nil)
var _ client.Payload = (*putPayload)(nil)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func newJSONPayload(v any) (*jsonPayload, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &jsonPayload{body: bytes.NewReader(data)}, nil
}

///////////////////////////////////////////////////////////////////////////////
// INTERFACE IMPLEMENTATION

func (p *jsonPayload) Method() string {
	return http.MethodPost
}

func (p *jsonPayload) Accept() string {
	return schema.LFSMediaType
}

func (p *jsonPayload) Type() string {
	return schema.LFSMediaType
}

func (p *jsonPayload) Read(b []byte) (int, error) {
	return p.body.Read(b)
}

func (p *putPayload) Method() string {
	return http.MethodPut
}

func (p *putPayload) Accept() string {
	return types.ContentTypeJSON
}

func (p *putPayload) Type() string {
	return types.ContentTypeBinary
}

func (p *putPayload) Read(b []byte) (int, error) {
	return p.body.Read(b)
}
