package schema

import (
	"path"
	"strings"

	// Packages
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Namespace is the (bucket, prefix) pair under which objects are stored,
// for example bucket "ckan" and prefix "my-dataset".
type Namespace struct {
	Bucket string `json:"bucket"`
	Prefix string `json:"prefix"`
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// ParseNamespace parses a "bucket/prefix" string. A value without a slash
// is taken as the prefix within DefaultStorageBucket.
func ParseNamespace(v string) (Namespace, error) {
	v = strings.Trim(strings.TrimSpace(v), "/")
	if v == "" {
		return Namespace{}, httpresponse.ErrBadRequest.With("storage namespace is empty")
	}
	bucket, prefix, found := strings.Cut(v, "/")
	if !found {
		bucket, prefix = DefaultStorageBucket, bucket
	}
	ns := Namespace{Bucket: bucket, Prefix: prefix}
	if err := ns.Validate(); err != nil {
		return Namespace{}, err
	}
	return ns, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Validate checks both parts are present and neither contains a slash
func (ns Namespace) Validate() error {
	if ns.Bucket == "" {
		return httpresponse.ErrBadRequest.With("storage namespace bucket is empty")
	}
	if ns.Prefix == "" {
		return httpresponse.ErrBadRequest.With("storage namespace prefix is empty")
	}
	if strings.Contains(ns.Bucket, "/") || strings.Contains(ns.Prefix, "/") {
		return httpresponse.ErrBadRequest.Withf("invalid storage namespace %q", ns.String())
	}
	return nil
}

// IsZero reports whether neither part is set
func (ns Namespace) IsZero() bool {
	return ns.Bucket == "" && ns.Prefix == ""
}

// String returns the namespace as "bucket/prefix", which is also the
// lfs_prefix stored on resource records
func (ns Namespace) String() string {
	return ns.Bucket + "/" + ns.Prefix
}

// Path returns the URL path segments of the namespace
func (ns Namespace) Path() []string {
	return []string{ns.Bucket, ns.Prefix}
}

// Key returns the storage key of an object within the namespace
func (ns Namespace) Key(oid string) string {
	return path.Join(ns.Bucket, ns.Prefix, oid)
}
