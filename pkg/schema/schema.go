package schema

////////////////////////////////////////////////////////////////////////////////
// TYPES

const (
	SchemaName = "datahub"

	// Git LFS wire protocol
	LFSMediaType      = "application/vnd.git-lfs+json"
	LFSTransferBasic  = "basic"
	LFSOperationUp    = "upload"
	LFSOperationDown  = "download"
	LFSActionUpload   = "upload"
	LFSActionVerify   = "verify"
	LFSActionDownload = "download"

	// URLTypeUpload marks a resource whose url refers to an uploaded object
	// rather than an external link.
	URLTypeUpload = "upload"

	// DatasetStateActive is the lifecycle state of a visible dataset.
	DatasetStateActive = "active"
	DatasetStateDraft  = "draft"

	// DefaultStorageBucket is the namespace bucket used when none is configured.
	DefaultStorageBucket = "ckan"

	// DefaultScopeActions are the actions requested for a resource scope.
	DefaultScopeActions = "read,write"
)
