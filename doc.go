// Package datahub orchestrates uploading a file as a dataset resource:
// a scoped token is requested from the site, the bytes are pushed to
// content-addressed storage and the storage reference is saved on a
// resource record, after which the dataset is activated when needed.
//
// This package declares the stage contracts. Implementations are in
// pkg/authz, pkg/lfs and pkg/metadata, and pkg/workflow sequences them.
package datahub
