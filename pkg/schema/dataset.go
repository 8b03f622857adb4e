package schema

import (
	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Dataset is the subset of a package_show result used by the workflow
type Dataset struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	State        string           `json:"state"`
	Organization *Organization    `json:"organization,omitempty"`
	Resources    []ResourceRecord `json:"resources,omitempty"`
}

type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DatasetPatch is the body of a package_patch call
type DatasetPatch struct {
	ID    string `json:"id"`
	State string `json:"state,omitempty"`
}

// ObjectID identifies a record by id, used for *_show actions
type ObjectID struct {
	ID string `json:"id"`
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// IsActive reports whether the dataset is publicly visible
func (d Dataset) IsActive() bool {
	return d.State == DatasetStateActive
}

// Resource returns the resource with the identifier
func (d Dataset) Resource(id string) (ResourceRecord, bool) {
	for _, r := range d.Resources {
		if r.ID == id {
			return r, true
		}
	}
	return ResourceRecord{}, false
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (d Dataset) String() string {
	return types.Stringify(d)
}
