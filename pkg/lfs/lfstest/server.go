// Package lfstest implements a Git LFS server for tests, speaking the batch
// API and the basic transfer adapter in both directions. Objects are kept in a gocloud.dev blob
// bucket keyed by namespace and sha256, and received bytes are counted so
// tests can prove that stored objects are never sent twice.
package lfstest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	// Packages
	jwt "github.com/golang-jwt/jwt/v5"
	schema "github.com/mutablelogic/go-datahub/pkg/schema"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	types "github.com/mutablelogic/go-server/pkg/types"
	blob "gocloud.dev/blob"
	gcerrors "gocloud.dev/gcerrors"

	// Drivers
	_ "gocloud.dev/blob/fileblob" // file:// URLs
	_ "gocloud.dev/blob/memblob"  // mem:// URLs
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Server is a Git LFS server backed by a blob bucket
type Server struct {
	*httptest.Server
	bucket *blob.Bucket

	token    string
	key      []byte
	verify   bool
	received atomic.Int64
	batches  atomic.Int64
	uploads  atomic.Int64
	verifies atomic.Int64
	sent     atomic.Int64

	mu       sync.Mutex
	failures map[string]int
}

type opt struct {
	url    string
	token  string
	key    []byte
	verify bool
}

// Opt configures the server
type Opt func(*opt)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// Operations which can be made to fail
const (
	OpBatch    = "batch"
	OpUpload   = "upload"
	OpVerify   = "verify"
	OpDownload = "download"
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New starts a server which is closed when the test completes
func New(t testing.TB, opts ...Opt) *Server {
	t.Helper()
	o := opt{url: "mem://", verify: true}
	for _, fn := range opts {
		fn(&o)
	}

	bucket, err := blob.OpenBucket(context.Background(), o.url)
	if err != nil {
		t.Fatalf("lfstest: failed to open bucket: %v", err)
	}

	s := &Server{
		bucket:   bucket,
		token:    o.token,
		key:      o.key,
		verify:   o.verify,
		failures: make(map[string]int),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /{bucket}/{prefix}/objects/batch", s.serveBatch)
	mux.HandleFunc("PUT /{bucket}/{prefix}/objects/{oid}", s.serveUpload)
	mux.HandleFunc("GET /{bucket}/{prefix}/objects/{oid}", s.serveDownload)
	mux.HandleFunc("POST /{bucket}/{prefix}/objects/{oid}/verify", s.serveVerify)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(func() {
		s.Server.Close()
		bucket.Close()
	})
	return s
}

// WithBucket opens objects in the bucket URL, for example "file:///tmp/lfs".
// The default is "mem://".
func WithBucket(url string) Opt {
	return func(o *opt) {
		o.url = url
	}
}

// WithToken requires requests to carry the bearer token
func WithToken(token string) Opt {
	return func(o *opt) {
		o.token = token
	}
}

// WithSigningKey requires requests to carry a bearer token signed with the
// HMAC key
func WithSigningKey(key []byte) Opt {
	return func(o *opt) {
		o.key = key
	}
}

// WithoutVerify leaves the verify action out of batch responses
func WithoutVerify() Opt {
	return func(o *opt) {
		o.verify = false
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// BytesReceived returns the number of object bytes received by uploads
func (s *Server) BytesReceived() int64 {
	return s.received.Load()
}

// BytesSent returns the number of object bytes sent by downloads
func (s *Server) BytesSent() int64 {
	return s.sent.Load()
}

// Batches returns the number of batch requests served
func (s *Server) Batches() int {
	return int(s.batches.Load())
}

// Uploads returns the number of upload requests served
func (s *Server) Uploads() int {
	return int(s.uploads.Load())
}

// Verifies returns the number of verify requests served
func (s *Server) Verifies() int {
	return int(s.verifies.Load())
}

// Has reports whether the namespace holds the object
func (s *Server) Has(ns schema.Namespace, oid string) bool {
	exists, err := s.bucket.Exists(context.Background(), ns.Key(oid))
	return err == nil && exists
}

// Put stores data in the namespace without counting received bytes and
// returns its oid
func (s *Server) Put(ns schema.Namespace, data []byte) (string, error) {
	sum := sha256.Sum256(data)
	oid := hex.EncodeToString(sum[:])
	return oid, s.bucket.WriteAll(context.Background(), ns.Key(oid), data, nil)
}

// Fail makes subsequent requests for the operation fail with the status
func (s *Server) Fail(op string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = status
}

// Recover removes a failure set with Fail
func (s *Server) Recover(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, op)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (s *Server) serveBatch(w http.ResponseWriter, r *http.Request) {
	s.batches.Add(1)
	if !s.check(w, r, OpBatch) {
		return
	}
	ns := namespace(r)

	var req schema.BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = httpresponse.Error(w, httpresponse.ErrBadRequest.With(err.Error()))
		return
	}
	next := s.batchObject
	switch req.Operation {
	case schema.LFSOperationUp:
	case schema.LFSOperationDown:
		next = s.batchDownload
	default:
		_ = httpresponse.Error(w, httpresponse.ErrBadRequest.Withf("unsupported operation %q", req.Operation))
		return
	}

	response := schema.BatchResponse{
		Transfer: schema.LFSTransferBasic,
		Objects:  make([]schema.BatchObjectResponse, 0, len(req.Objects)),
	}
	for _, object := range req.Objects {
		response.Objects = append(response.Objects, next(r, ns, object))
	}

	w.Header().Set(types.ContentTypeHeader, schema.LFSMediaType)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

func (s *Server) batchObject(r *http.Request, ns schema.Namespace, object schema.BatchObject) schema.BatchObjectResponse {
	result := schema.BatchObjectResponse{BatchObject: object, Authenticated: true}
	if !schema.ValidSHA256(object.OID) || object.Size < 0 {
		result.Error = &schema.BatchError{Code: http.StatusUnprocessableEntity, Message: "invalid object"}
		return result
	}

	// A stored object of the same size needs no actions
	attrs, err := s.bucket.Attributes(r.Context(), ns.Key(object.OID))
	if err == nil && attrs.Size == object.Size {
		return result
	} else if err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		result.Error = &schema.BatchError{Code: http.StatusInternalServerError, Message: err.Error()}
		return result
	}

	header, href := actionHeader(r), s.href(ns, object.OID)
	result.Actions = map[string]schema.BatchAction{
		schema.LFSActionUpload: {Href: href, Header: header, ExpiresIn: 3600},
	}
	if s.verify {
		result.Actions[schema.LFSActionVerify] = schema.BatchAction{Href: href + "/verify", Header: header, ExpiresIn: 3600}
	}
	return result
}

// batchDownload returns a download action for a stored object of the
// same size
func (s *Server) batchDownload(r *http.Request, ns schema.Namespace, object schema.BatchObject) schema.BatchObjectResponse {
	result := schema.BatchObjectResponse{BatchObject: object, Authenticated: true}
	if !schema.ValidSHA256(object.OID) || object.Size < 0 {
		result.Error = &schema.BatchError{Code: http.StatusUnprocessableEntity, Message: "invalid object"}
		return result
	}

	attrs, err := s.bucket.Attributes(r.Context(), ns.Key(object.OID))
	switch {
	case gcerrors.Code(err) == gcerrors.NotFound:
		result.Error = &schema.BatchError{Code: http.StatusNotFound, Message: "object does not exist"}
	case err != nil:
		result.Error = &schema.BatchError{Code: http.StatusInternalServerError, Message: err.Error()}
	case attrs.Size != object.Size:
		result.Error = &schema.BatchError{Code: http.StatusUnprocessableEntity, Message: fmt.Sprintf("object has size %d", attrs.Size)}
	default:
		result.Actions = map[string]schema.BatchAction{
			schema.LFSActionDownload: {Href: s.href(ns, object.OID), Header: actionHeader(r), ExpiresIn: 3600},
		}
	}
	return result
}

func (s *Server) serveDownload(w http.ResponseWriter, r *http.Request) {
	if !s.check(w, r, OpDownload) {
		return
	}
	ns, oid := namespace(r), r.PathValue("oid")
	if !schema.ValidSHA256(oid) {
		_ = httpresponse.Error(w, httpresponse.ErrBadRequest.Withf("invalid oid %q", oid))
		return
	}

	reader, err := s.bucket.NewReader(r.Context(), ns.Key(oid), nil)
	if gcerrors.Code(err) == gcerrors.NotFound {
		_ = httpresponse.Error(w, httpresponse.ErrNotFound.Withf("object %q not found", oid))
		return
	} else if err != nil {
		_ = httpresponse.Error(w, httpresponse.ErrInternalError.Withf("blob operation failed: %v", err))
		return
	}
	defer reader.Close()

	w.Header().Set(types.ContentTypeHeader, types.ContentTypeBinary)
	w.WriteHeader(http.StatusOK)
	n, _ := io.Copy(w, reader)
	s.sent.Add(n)
}

func (s *Server) serveUpload(w http.ResponseWriter, r *http.Request) {
	s.uploads.Add(1)
	if !s.check(w, r, OpUpload) {
		return
	}
	ns, oid := namespace(r), r.PathValue("oid")
	if !schema.ValidSHA256(oid) {
		_ = httpresponse.Error(w, httpresponse.ErrBadRequest.Withf("invalid oid %q", oid))
		return
	}

	if err := s.write(r.Context(), ns.Key(oid), oid, r.Body); err != nil {
		_ = httpresponse.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// write stores the body under key, removing it again when its hash is not oid
func (s *Server) write(ctx context.Context, key, oid string, body io.Reader) error {
	writer, err := s.bucket.NewWriter(ctx, key, &blob.WriterOptions{ContentType: types.ContentTypeBinary})
	if err != nil {
		return httpresponse.ErrInternalError.Withf("blob operation failed: %v", err)
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(writer, h), body)
	s.received.Add(n)
	if err != nil {
		err = errors.Join(err, writer.Close())
		_ = s.bucket.Delete(ctx, key)
		return httpresponse.ErrInternalError.Withf("blob operation failed: %v", err)
	} else if err := writer.Close(); err != nil {
		_ = s.bucket.Delete(ctx, key)
		return httpresponse.ErrInternalError.Withf("blob operation failed: %v", err)
	}

	if sum := hex.EncodeToString(h.Sum(nil)); sum != oid {
		_ = s.bucket.Delete(ctx, key)
		return httpresponse.ErrBadRequest.Withf("content hash %s does not match oid %s", sum, oid)
	}
	return nil
}

func (s *Server) serveVerify(w http.ResponseWriter, r *http.Request) {
	s.verifies.Add(1)
	if !s.check(w, r, OpVerify) {
		return
	}
	ns := namespace(r)

	var object schema.BatchObject
	if err := json.NewDecoder(r.Body).Decode(&object); err != nil {
		_ = httpresponse.Error(w, httpresponse.ErrBadRequest.With(err.Error()))
		return
	} else if object.OID != r.PathValue("oid") {
		_ = httpresponse.Error(w, httpresponse.ErrBadRequest.Withf("oid %q does not match path", object.OID))
		return
	}

	attrs, err := s.bucket.Attributes(r.Context(), ns.Key(object.OID))
	if err != nil {
		_ = httpresponse.Error(w, httpresponse.ErrNotFound.Withf("object %q not found", object.OID))
		return
	} else if attrs.Size != object.Size {
		_ = httpresponse.Error(w, httpresponse.ErrConflict.Withf("object %q has size %d, expected %d", object.OID, attrs.Size, object.Size))
		return
	}
	w.WriteHeader(http.StatusOK)
}

// check applies token and failure injection, and reports whether the
// request may proceed
func (s *Server) check(w http.ResponseWriter, r *http.Request, op string) bool {
	if !s.authorized(r) {
		_ = httpresponse.Error(w, httpresponse.Err(http.StatusUnauthorized), "invalid or missing token")
		return false
	}
	s.mu.Lock()
	status, fail := s.failures[op]
	s.mu.Unlock()
	if fail {
		_ = httpresponse.Error(w, httpresponse.Err(status), fmt.Sprintf("%s failed", op))
		return false
	}
	return true
}

func (s *Server) authorized(r *http.Request) bool {
	value, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	switch {
	case s.token != "":
		return found && value == s.token
	case s.key != nil:
		if !found {
			return false
		}
		_, err := jwt.Parse(value, func(*jwt.Token) (any, error) {
			return s.key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		return err == nil
	default:
		return true
	}
}

func (s *Server) href(ns schema.Namespace, oid string) string {
	return s.URL + "/" + strings.Join(append(ns.Path(), "objects", oid), "/")
}

// actionHeader passes the request credentials on to transfer actions
func actionHeader(r *http.Request) map[string]string {
	header := map[string]string{}
	if auth := r.Header.Get("Authorization"); auth != "" {
		header["Authorization"] = auth
	}
	return header
}

func namespace(r *http.Request) schema.Namespace {
	return schema.Namespace{Bucket: r.PathValue("bucket"), Prefix: r.PathValue("prefix")}
}
