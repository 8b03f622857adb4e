package datahub

import (
	"context"

	// Packages
	schema "github.com/mutablelogic/go-datahub/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// INTERFACES

// Authorizer exchanges capability scopes for a short-lived bearer token
type Authorizer interface {
	// Authorize returns a token for the scopes, in order. An error is
	// of kind schema.KindAuthorization.
	Authorize(ctx context.Context, scopes ...string) (*schema.AuthToken, error)
}

// Uploader pushes file bytes to content-addressed storage
type Uploader interface {
	// Namespace returns the namespace objects are pushed to
	Namespace() schema.Namespace

	// Push uploads the file unless the storage already holds the same
	// bytes, reporting progress as a fraction in [0,1]. An error is of
	// kind schema.KindStorageTransfer.
	Push(ctx context.Context, file schema.File, token *schema.AuthToken, fn func(float64)) (*schema.StorageObjectRef, error)
}

// Persister saves resource records
type Persister interface {
	// Save creates the record when it has no id, otherwise updates it. An
	// error is of kind schema.KindPersistence.
	Save(ctx context.Context, record schema.ResourceRecord) (*schema.ResourceRecord, error)
}

// Finalizer makes a dataset visible once it has a resource
type Finalizer interface {
	// Pending reports whether the dataset still needs to be activated
	Pending(ctx context.Context, packageID string) (bool, error)

	// Activate moves the dataset into the active state
	Activate(ctx context.Context, packageID string) error
}
