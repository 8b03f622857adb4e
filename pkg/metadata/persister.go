package metadata

import (
	"context"
	"errors"
	"maps"

	// Packages
	datahub "github.com/mutablelogic/go-datahub"
	ckan "github.com/mutablelogic/go-datahub/pkg/ckan"
	schema "github.com/mutablelogic/go-datahub/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Persister saves resource records with resource_create and resource_update
type Persister struct {
	client *ckan.Client
}

var _ datahub.Persister = (*Persister)(nil)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func NewPersister(client *ckan.Client) (*Persister, error) {
	if client == nil {
		return nil, errors.New("metadata: client is nil")
	}
	return &Persister{client: client}, nil
}

// NewRecord returns the record for an uploaded object. Size, checksum and
// prefix come from the object; matching keys in fields are ignored.
func NewRecord(packageID, resourceID string, obj *schema.StorageObjectRef, fields map[string]string) schema.ResourceRecord {
	record := schema.ResourceRecord{
		ID:        resourceID,
		PackageID: packageID,
		URLType:   schema.URLTypeUpload,
		Fields:    maps.Clone(fields),
	}
	if obj != nil {
		record.URL = obj.Name
		record.Size = obj.SizeBytes
		record.SHA256 = obj.ContentAddress
		record.LFSPrefix = obj.Prefix
	}
	return record
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Save creates the record when it has no id and updates it otherwise. The
// returned record always has an id and a package id.
func (p *Persister) Save(ctx context.Context, record schema.ResourceRecord) (*schema.ResourceRecord, error) {
	op := ckan.ActionResourceCreate
	if record.ID != "" {
		op = ckan.ActionResourceUpdate
	}
	if err := record.Validate(); err != nil {
		return nil, schema.PersistenceError(op, err)
	}

	var result *schema.ResourceRecord
	var err error
	if op == ckan.ActionResourceUpdate {
		result, err = p.client.ResourceUpdate(ctx, record)
	} else {
		result, err = p.client.ResourceCreate(ctx, record)
	}
	if err != nil {
		return nil, schema.PersistenceError(op, err)
	}

	if result.ID == "" {
		return nil, schema.PersistenceError(op, errors.New("persisted resource has no id"))
	} else if result.PackageID == "" {
		return nil, schema.PersistenceError(op, errors.New("persisted resource has no package_id"))
	}
	return result, nil
}
