package schema

import (
	"fmt"

	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// BatchRequest is a Git LFS batch API request
type BatchRequest struct {
	Operation string        `json:"operation"`
	Transfers []string      `json:"transfers,omitempty"`
	Ref       *BatchRef     `json:"ref,omitempty"`
	Objects   []BatchObject `json:"objects"`
}

type BatchRef struct {
	Name string `json:"name"`
}

// BatchObject identifies an object by oid and size
type BatchObject struct {
	OID  string `json:"oid"`
	Size int64  `json:"size"`
}

// BatchResponse is a Git LFS batch API response
type BatchResponse struct {
	Transfer string                `json:"transfer,omitempty"`
	Objects  []BatchObjectResponse `json:"objects"`
	Message  string                `json:"message,omitempty"`
}

type BatchObjectResponse struct {
	BatchObject
	Authenticated bool                   `json:"authenticated,omitempty"`
	Actions       map[string]BatchAction `json:"actions,omitempty"`
	Error         *BatchError            `json:"error,omitempty"`
}

// BatchAction is a transfer instruction returned for an object
type BatchAction struct {
	Href      string            `json:"href"`
	Header    map[string]string `json:"header,omitempty"`
	ExpiresIn int               `json:"expires_in,omitempty"`
}

type BatchError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Action returns the named action, or nil when the server did not return it
func (o BatchObjectResponse) Action(name string) *BatchAction {
	if action, exists := o.Actions[name]; exists {
		return &action
	}
	return nil
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("object error [%d]: %s", e.Code, e.Message)
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (r BatchRequest) String() string {
	return types.Stringify(r)
}

func (r BatchResponse) String() string {
	return types.Stringify(r)
}
