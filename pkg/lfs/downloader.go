package lfs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"

	// Packages
	client "github.com/mutablelogic/go-client"
	schema "github.com/mutablelogic/go-datahub/pkg/schema"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	types "github.com/mutablelogic/go-server/pkg/types"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Downloader resolves and fetches stored objects from a Git LFS server. The
// namespace is given per call, since a resource keeps the prefix it was
// uploaded under.
type Downloader struct {
	*client.Client
	ref string
}

// progressWriter reports the fraction of bytes written and hashes them
type progressWriter struct {
	w        io.Writer
	progress *progressReader
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewDownloader returns a downloader for the server URL
func NewDownloader(server string, opts ...Opt) (*Downloader, error) {
	var o opt
	for _, fn := range opts {
		if err := fn(&o); err != nil {
			return nil, err
		}
	}
	c, err := newClient(server, o)
	if err != nil {
		return nil, err
	}
	return &Downloader{Client: c, ref: o.ref}, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Resolve returns the download action for the object. A missing object, a
// size mismatch and a denied request are returned as httpresponse errors
// with status 404, 404 and 403 respectively.
func (d *Downloader) Resolve(ctx context.Context, ns schema.Namespace, object schema.BatchObject, token *schema.AuthToken) (*schema.BatchAction, error) {
	if err := ns.Validate(); err != nil {
		return nil, err
	}
	if token == nil || token.Value == "" {
		return nil, schema.StorageTransferError("batch", errors.New("missing token"))
	}
	if !schema.ValidSHA256(object.OID) {
		return nil, schema.StorageTransferError("batch", httpresponse.ErrBadRequest.Withf("invalid oid %q", object.OID))
	}

	result, err := batch(ctx, d.Client, ns, d.ref, schema.LFSOperationDown, token, object)
	if err != nil {
		return nil, schema.StorageTransferError("batch", downloadError(err))
	}
	action := result.Action(schema.LFSActionDownload)
	if action == nil || action.Href == "" {
		return nil, schema.StorageTransferError("batch", httpresponse.ErrNotFound.With("no download is available"))
	}
	return action, nil
}

// Fetch writes the object to w and returns the number of bytes written.
// The content is checked against the oid and size. Progress is reported
// to fn, which may be nil.
func (d *Downloader) Fetch(ctx context.Context, ns schema.Namespace, object schema.BatchObject, token *schema.AuthToken, w io.Writer, fn func(float64)) (int64, error) {
	action, err := d.Resolve(ctx, ns, object, token)
	if err != nil {
		return 0, err
	}

	h := sha256.New()
	writer := &progressWriter{w: io.MultiWriter(w, h), progress: newProgressReader(nil, object.Size, fn)}
	opts := append(actionOpts(action), client.OptNoTimeout())
	if err := d.DoWithContext(ctx, client.NewRequestEx(http.MethodGet, types.ContentTypeAny), writer, opts...); err != nil {
		return writer.progress.written, schema.StorageTransferError("download", downloadError(err))
	}

	n := writer.progress.written
	if n != object.Size {
		return n, schema.StorageTransferError("download", fmt.Errorf("received %d of %d bytes", n, object.Size))
	} else if sum := hex.EncodeToString(h.Sum(nil)); sum != object.OID {
		return n, schema.StorageTransferError("download", fmt.Errorf("content hash %s does not match oid %s", sum, object.OID))
	}
	writer.progress.done()
	return n, nil
}

///////////////////////////////////////////////////////////////////////////////
// INTERFACE IMPLEMENTATION

func (w *progressWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.progress.count(n)
	return n, err
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// downloadError maps batch and transfer failures to not found or forbidden
func downloadError(err error) error {
	switch statusOf(err) {
	case http.StatusNotFound:
		return httpresponse.ErrNotFound.With("the requested object does not exist")
	case http.StatusUnprocessableEntity:
		return httpresponse.ErrNotFound.With("object parameters mismatch")
	case http.StatusForbidden:
		return httpresponse.ErrForbidden.With("request was denied by the storage server")
	default:
		return err
	}
}
