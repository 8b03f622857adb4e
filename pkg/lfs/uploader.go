package lfs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	// Packages
	client "github.com/mutablelogic/go-client"
	datahub "github.com/mutablelogic/go-datahub"
	schema "github.com/mutablelogic/go-datahub/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Uploader pushes files to a single namespace of a Git LFS server
type Uploader struct {
	*client.Client
	ns  schema.Namespace
	ref string
}

type opt struct {
	ref  string
	opts []client.ClientOpt
}

// Opt is a functional option for New
type Opt func(*opt) error

var _ datahub.Uploader = (*Uploader)(nil)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns an uploader for the server URL, for example
// "https://giftless.example.org". The namespace is validated once here.
func New(server string, ns schema.Namespace, opts ...Opt) (*Uploader, error) {
	var o opt
	for _, fn := range opts {
		if err := fn(&o); err != nil {
			return nil, err
		}
	}
	if err := ns.Validate(); err != nil {
		return nil, err
	}

	c, err := newClient(server, o)
	if err != nil {
		return nil, err
	}
	return &Uploader{Client: c, ns: ns, ref: o.ref}, nil
}

// WithRef sets the ref sent with batch requests, which some servers use to
// authorize pushes
func WithRef(name string) Opt {
	return func(o *opt) error {
		o.ref = name
		return nil
	}
}

// WithClientOpt sets options on the underlying HTTP client
func WithClientOpt(opts ...client.ClientOpt) Opt {
	return func(o *opt) error {
		o.opts = append(o.opts, opts...)
		return nil
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Namespace returns the namespace objects are pushed to
func (u *Uploader) Namespace() schema.Namespace {
	return u.ns
}

// Push uploads the file and returns the stored object. When the server
// already holds the same bytes no data is sent and the returned reference
// has AlreadyExisted set. Progress is reported to fn, which may be nil, and
// always ends at 1.0 on success.
func (u *Uploader) Push(ctx context.Context, file schema.File, token *schema.AuthToken, fn func(float64)) (*schema.StorageObjectRef, error) {
	if file.IsZero() {
		return nil, schema.StorageTransferError("open", errors.New("no file"))
	}
	if token == nil || token.Value == "" {
		return nil, schema.StorageTransferError("batch", errors.New("missing token"))
	}

	// Hash the contents
	oid, size, err := hashFile(file)
	if err != nil {
		return nil, schema.StorageTransferError("open", err)
	} else if size == 0 {
		return nil, schema.StorageTransferError("open", fmt.Errorf("file %q is empty", file.Name))
	}
	ref := &schema.StorageObjectRef{
		ContentAddress: oid,
		SizeBytes:      size,
		Name:           file.Name,
		Prefix:         u.ns.String(),
	}

	// Ask the server what to do with the object
	object, err := batch(ctx, u.Client, u.ns, u.ref, schema.LFSOperationUp, token, schema.BatchObject{OID: oid, Size: size})
	if err != nil {
		return nil, schema.StorageTransferError("batch", err)
	}

	// No upload action means the object is already stored
	upload := object.Action(schema.LFSActionUpload)
	if upload == nil {
		ref.AlreadyExisted = true
		report(fn, 1)
		return ref, nil
	}

	// Transfer the bytes
	if err := u.put(ctx, file, size, upload, fn); err != nil {
		return nil, schema.StorageTransferError("upload", err)
	}

	// Verify when requested
	if verify := object.Action(schema.LFSActionVerify); verify != nil {
		if err := u.verify(ctx, verify, object.BatchObject); err != nil {
			return nil, schema.StorageTransferError("verify", err)
		}
	}

	return ref, nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func newClient(server string, o opt) (*client.Client, error) {
	server = strings.TrimRight(strings.TrimSpace(server), "/")
	if server == "" {
		return nil, errors.New("lfs: server URL is empty")
	}
	return client.New(append(o.opts, client.OptEndpoint(server))...)
}

// hashFile returns the lowercase sha256 and byte count of the file contents
func hashFile(file schema.File) (string, int64, error) {
	r, err := file.Open()
	if err != nil {
		return "", 0, err
	}
	defer r.Close()

	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

func (u *Uploader) put(ctx context.Context, file schema.File, size int64, action *schema.BatchAction, fn func(float64)) error {
	r, err := file.Open()
	if err != nil {
		return err
	}
	defer r.Close()

	// Send exactly the bytes which were hashed
	progress := newProgressReader(io.LimitReader(r, size), size, fn)
	opts := append(actionOpts(action), client.OptNoTimeout())
	if err := u.DoWithContext(ctx, &putPayload{body: progress}, nil, opts...); err != nil {
		return err
	}
	if progress.written != size {
		return fmt.Errorf("file changed during upload: sent %d of %d bytes", progress.written, size)
	}
	progress.done()
	return nil
}

func (u *Uploader) verify(ctx context.Context, action *schema.BatchAction, object schema.BatchObject) error {
	payload, err := newJSONPayload(object)
	if err != nil {
		return err
	}
	return u.DoWithContext(ctx, payload, nil, actionOpts(action)...)
}

// actionOpts returns request options which send a request to the action href
// with its headers
func actionOpts(action *schema.BatchAction) []client.RequestOpt {
	opts := []client.RequestOpt{client.OptReqEndpoint(action.Href)}
	for key, value := range action.Header {
		opts = append(opts, client.OptReqHeader(key, value))
	}
	return opts
}

func report(fn func(float64), fraction float64) {
	if fn != nil {
		fn(fraction)
	}
}
