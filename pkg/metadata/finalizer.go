package metadata

import (
	"context"
	"errors"

	// Packages
	datahub "github.com/mutablelogic/go-datahub"
	ckan "github.com/mutablelogic/go-datahub/pkg/ckan"
	schema "github.com/mutablelogic/go-datahub/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Finalizer activates draft datasets
type Finalizer struct {
	client *ckan.Client
}

var _ datahub.Finalizer = (*Finalizer)(nil)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func NewFinalizer(client *ckan.Client) (*Finalizer, error) {
	if client == nil {
		return nil, errors.New("metadata: client is nil")
	}
	return &Finalizer{client: client}, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Pending reports whether the dataset is not yet active, which is the case
// until its first resource has been saved
func (f *Finalizer) Pending(ctx context.Context, packageID string) (bool, error) {
	dataset, err := f.client.PackageShow(ctx, packageID)
	if err != nil {
		return false, schema.FinalizationError(ckan.ActionPackageShow, err)
	}
	return !dataset.IsActive(), nil
}

// Activate makes the dataset active. Activating an active dataset succeeds.
func (f *Finalizer) Activate(ctx context.Context, packageID string) error {
	if packageID == "" {
		return schema.FinalizationError(ckan.ActionPackagePatch, errors.New("missing package id"))
	}
	dataset, err := f.client.PackagePatch(ctx, schema.DatasetPatch{ID: packageID, State: schema.DatasetStateActive})
	if err != nil {
		return schema.FinalizationError(ckan.ActionPackagePatch, err)
	} else if !dataset.IsActive() {
		return schema.FinalizationError(ckan.ActionPackagePatch, errors.New("dataset state is "+dataset.State))
	}
	return nil
}
