package schema

import (
	"encoding/json"
	"fmt"
	"maps"
	"strconv"

	// Packages
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// ResourceRecord is the metadata entity for a file attached to a dataset.
// An empty ID means the record will be created, otherwise updated.
//
// Size, SHA256 and LFSPrefix are taken from the StorageObjectRef of the same
// run. Form fields with the same keys are discarded when encoding.
type ResourceRecord struct {
	ID        string
	PackageID string
	URL       string
	URLType   string
	Size      int64
	SHA256    string
	LFSPrefix string
	Fields    map[string]string // pass-through form fields
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	fieldID        = "id"
	fieldPackageID = "package_id"
	fieldURL       = "url"
	fieldURLType   = "url_type"
	fieldSize      = "size"
	fieldSHA256    = "sha256"
	fieldLFSPrefix = "lfs_prefix"
)

// reservedFields are never taken from client form input
var reservedFields = []string{fieldID, fieldPackageID, fieldURL, fieldURLType, fieldSize, fieldSHA256, fieldLFSPrefix}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Field returns a pass-through form field
func (r ResourceRecord) Field(key string) string {
	return r.Fields[key]
}

// IsUpload reports whether the record refers to an uploaded object
func (r ResourceRecord) IsUpload() bool {
	return r.URLType == URLTypeUpload
}

// Validate enforces the invariants of upload records: a 64-character hex
// sha256, a positive size and a non-empty lfs_prefix.
func (r ResourceRecord) Validate() error {
	if r.PackageID == "" {
		return fmt.Errorf("resource package_id is missing")
	}
	if !r.IsUpload() {
		return nil
	}
	if r.SHA256 == "" {
		return fmt.Errorf("resource's sha256 field cannot be missing for uploads")
	} else if !ValidSHA256(r.SHA256) {
		return fmt.Errorf("resource's sha256 is not a valid hex-only string")
	}
	if r.Size <= 0 {
		return fmt.Errorf("resource's size must be a positive integer")
	}
	if r.LFSPrefix == "" {
		return fmt.Errorf("resource's lfs_prefix field cannot be empty")
	}
	return nil
}

// StorageObject returns the namespace and object a record was uploaded as.
// Records without a sha256, size or lfs_prefix have nothing to download.
func (r ResourceRecord) StorageObject() (Namespace, BatchObject, error) {
	if r.SHA256 == "" || r.Size <= 0 || r.LFSPrefix == "" {
		return Namespace{}, BatchObject{}, httpresponse.ErrNotFound.Withf("resource %q has no stored object", r.ID)
	}
	ns, err := ParseNamespace(r.LFSPrefix)
	if err != nil {
		return Namespace{}, BatchObject{}, err
	}
	return ns, BatchObject{OID: r.SHA256, Size: r.Size}, nil
}

////////////////////////////////////////////////////////////////////////////////
// JSON

func (r ResourceRecord) MarshalJSON() ([]byte, error) {
	body := make(map[string]any, len(r.Fields)+len(reservedFields))
	for k, v := range r.Fields {
		body[k] = v
	}
	for _, k := range reservedFields {
		delete(body, k)
	}
	if r.ID != "" {
		body[fieldID] = r.ID
	}
	body[fieldPackageID] = r.PackageID
	if r.URL != "" {
		body[fieldURL] = r.URL
	}
	if r.URLType != "" {
		body[fieldURLType] = r.URLType
	}
	if r.Size > 0 {
		body[fieldSize] = r.Size
	}
	if r.SHA256 != "" {
		body[fieldSHA256] = r.SHA256
	}
	if r.LFSPrefix != "" {
		body[fieldLFSPrefix] = r.LFSPrefix
	}
	return json.Marshal(body)
}

func (r *ResourceRecord) UnmarshalJSON(data []byte) error {
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return err
	}
	*r = ResourceRecord{}
	for k, v := range body {
		switch k {
		case fieldID:
			r.ID = stringValue(v)
		case fieldPackageID:
			r.PackageID = stringValue(v)
		case fieldURL:
			r.URL = stringValue(v)
		case fieldURLType:
			r.URLType = stringValue(v)
		case fieldSHA256:
			r.SHA256 = stringValue(v)
		case fieldLFSPrefix:
			r.LFSPrefix = stringValue(v)
		case fieldSize:
			size, err := int64Value(v)
			if err != nil {
				return fmt.Errorf("size: %w", err)
			}
			r.Size = size
		default:
			if v == nil {
				continue
			}
			if r.Fields == nil {
				r.Fields = make(map[string]string)
			}
			r.Fields[k] = stringValue(v)
		}
	}
	return nil
}

// Clone returns a copy which shares no maps with r
func (r ResourceRecord) Clone() ResourceRecord {
	r.Fields = maps.Clone(r.Fields)
	return r
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (r ResourceRecord) String() string {
	return types.Stringify(r)
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func stringValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		data, _ := json.Marshal(v)
		return string(data)
	}
}

func int64Value(v any) (int64, error) {
	switch v := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return int64(v), nil
	case string:
		if v == "" {
			return 0, nil
		}
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
