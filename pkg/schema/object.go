package schema

import (
	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// StorageObjectRef describes an object pushed to content-addressed storage.
// Two pushes of identical bytes yield the same ContentAddress; the second
// reports AlreadyExisted.
type StorageObjectRef struct {
	ContentAddress string `json:"oid"`              // sha256, lowercase hex
	SizeBytes      int64  `json:"size"`             // exact byte count hashed
	AlreadyExisted bool   `json:"exists,omitempty"` // no bytes were transferred
	Name           string `json:"name,omitempty"`   // object name, used as the resource url
	Prefix         string `json:"prefix,omitempty"` // namespace as "bucket/prefix"
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (o StorageObjectRef) String() string {
	return types.Stringify(o)
}
