package schema

import (
	"maps"

	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// UploadRequest is handed from the form to the workflow. The workflow takes
// a copy when it starts, so later changes by the caller have no effect.
type UploadRequest struct {
	File       File              `json:"-"`
	Scopes     []string          `json:"scopes"`
	Namespace  Namespace         `json:"namespace,omitzero"`
	ResourceID string            `json:"resource_id,omitempty"` // empty creates a new resource
	Fields     map[string]string `json:"fields,omitempty"`      // other form fields
}

// Outcome is the terminal value of a workflow run
type Outcome struct {
	State    State             `json:"state"`
	Action   Action            `json:"action,omitempty"`
	Target   string            `json:"target,omitempty"` // navigation target
	Object   *StorageObjectRef `json:"object,omitempty"`
	Resource *ResourceRecord   `json:"resource,omitempty"`
	Err      error             `json:"-"` // reason when Failed, or a cancelled no-op
	Warning  error             `json:"-"` // non-fatal failure, such as finalization
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Clone returns a deep copy of the request
func (r UploadRequest) Clone() UploadRequest {
	r.Scopes = append([]string(nil), r.Scopes...)
	r.Fields = maps.Clone(r.Fields)
	return r
}

// HasFile reports whether a file was selected
func (r UploadRequest) HasFile() bool {
	return !r.File.IsZero()
}

// Succeeded reports whether the run reached the Succeeded state
func (o Outcome) Succeeded() bool {
	return o.State == Succeeded
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (r UploadRequest) String() string {
	return types.Stringify(r)
}

func (o Outcome) String() string {
	return types.Stringify(o)
}
