// Package ckantest implements an in-memory CKAN action API for tests. It
// serves the actions used by the upload workflow, records every call and
// can be told to fail an action.
package ckantest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	// Packages
	jwt "github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"
	ckan "github.com/mutablelogic/go-datahub/pkg/ckan"
	schema "github.com/mutablelogic/go-datahub/pkg/schema"
	httprequest "github.com/mutablelogic/go-server/pkg/httprequest"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Server is a CKAN site with datasets and resources held in memory
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	datasets  map[string]*schema.Dataset // by id
	resources map[string]schema.ResourceRecord
	calls     []Call
	failures  map[string]failure
	grant     func([]string) []string
	omit      bool
	apiToken  string
	secret    []byte
	ttl       time.Duration
}

// Call is a recorded action request
type Call struct {
	Action string
	Body   json.RawMessage
}

type failure struct {
	status int
	err    ckan.ActionError
}

// Opt configures the server
type Opt func(*Server)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New starts a server which is closed when the test completes
func New(t testing.TB, opts ...Opt) *Server {
	t.Helper()
	s := &Server{
		datasets:  make(map[string]*schema.Dataset),
		resources: make(map[string]schema.ResourceRecord),
		failures:  make(map[string]failure),
		secret:    []byte("ckantest"),
		ttl:       time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+ckan.ActionPath+"/{action}", s.serveAction)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// WithDataset adds a dataset in the given state
func WithDataset(id, name, state string) Opt {
	return func(s *Server) {
		s.datasets[id] = &schema.Dataset{ID: id, Name: name, State: state}
	}
}

// WithResource adds an existing resource
func WithResource(record schema.ResourceRecord) Opt {
	return func(s *Server) {
		s.resources[record.ID] = record.Clone()
	}
}

// WithGrant sets the function which decides the granted scopes. By default
// every requested scope is granted.
func WithGrant(fn func(requested []string) []string) Opt {
	return func(s *Server) {
		s.grant = fn
	}
}

// WithoutGrantedScopes leaves granted_scopes out of authz_authorize results,
// so the scopes are only carried in the token claims
func WithoutGrantedScopes() Opt {
	return func(s *Server) {
		s.omit = true
	}
}

// WithAPIToken requires every call to carry the token in the
// Authorization header
func WithAPIToken(token string) Opt {
	return func(s *Server) {
		s.apiToken = token
	}
}

// WithSecret sets the key used to sign issued tokens
func WithSecret(secret string) Opt {
	return func(s *Server) {
		s.secret = []byte(secret)
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Secret returns the key used to sign issued tokens
func (s *Server) Secret() []byte {
	return s.secret
}

// Fail makes subsequent calls to the action fail with the status and message
func (s *Server) Fail(action string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[action] = failure{status: status, err: ckan.ActionError{Type: errorType(status), Message: message}}
}

// Recover removes a failure set with Fail
func (s *Server) Recover(action string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, action)
}

// Calls returns the recorded calls in order
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// Actions returns the names of the recorded calls in order
func (s *Server) Actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]string, 0, len(s.calls))
	for _, call := range s.calls {
		result = append(result, call.Action)
	}
	return result
}

// Dataset returns a copy of a dataset by id
func (s *Server) Dataset(id string) (schema.Dataset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dataset, exists := s.datasets[id]; exists {
		return *dataset, true
	}
	return schema.Dataset{}, false
}

// Resource returns a copy of a resource by id
func (s *Server) Resource(id string) (schema.ResourceRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, exists := s.resources[id]
	return record.Clone(), exists
}

// Resources returns the number of resources held
func (s *Server) Resources() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.resources)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (s *Server) serveAction(w http.ResponseWriter, r *http.Request) {
	action := r.PathValue("action")

	var body json.RawMessage
	if err := httprequest.Read(r, &body); err != nil {
		s.fail(w, http.StatusBadRequest, ckan.ActionError{Type: "Validation Error", Message: err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Action: action, Body: body})

	if s.apiToken != "" && r.Header.Get("Authorization") != s.apiToken {
		s.fail(w, http.StatusForbidden, ckan.ActionError{Type: "Authorization Error", Message: "Access denied"})
		return
	}
	if f, exists := s.failures[action]; exists {
		s.fail(w, f.status, f.err)
		return
	}

	var result any
	var err error
	switch action {
	case ckan.ActionAuthorize:
		result, err = s.authorize(body)
	case ckan.ActionResourceCreate:
		result, err = s.resourceCreate(body)
	case ckan.ActionResourceUpdate:
		result, err = s.resourceUpdate(body)
	case ckan.ActionPackageShow:
		result, err = s.packageShow(body)
	case ckan.ActionPackagePatch:
		result, err = s.packagePatch(body)
	default:
		s.fail(w, http.StatusBadRequest, ckan.ActionError{Type: "Bad request", Message: "Action name not known: " + action})
		return
	}
	if err != nil {
		s.fail(w, statusOf(err), ckan.ActionError{Type: errorType(statusOf(err)), Message: err.Error()})
		return
	}

	_ = httpresponse.JSON(w, http.StatusOK, httprequest.Indent(r), map[string]any{
		"success": true,
		"result":  result,
	})
}

func (s *Server) fail(w http.ResponseWriter, status int, err ckan.ActionError) {
	_ = httpresponse.JSON(w, status, 0, map[string]any{
		"success": false,
		"error":   &err,
	})
}

func (s *Server) authorize(body json.RawMessage) (any, error) {
	var req schema.AuthorizeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, statusError(http.StatusBadRequest, err.Error())
	}
	granted := req.Scopes
	if s.grant != nil {
		granted = s.grant(req.Scopes)
	}
	expires := time.Now().Add(s.ttl).UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":    "ckantest",
		"exp":    expires.Unix(),
		"scopes": strings.Join(granted, " "),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, statusError(http.StatusInternalServerError, err.Error())
	}
	response := schema.AuthorizeResponse{
		Token:     signed,
		ExpiresAt: expires.Format(time.RFC3339),
		UserID:    "ckantest",
	}
	if !s.omit {
		response.GrantedScopes = granted
	}
	return response, nil
}

func (s *Server) resourceCreate(body json.RawMessage) (any, error) {
	var record schema.ResourceRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, statusError(http.StatusBadRequest, err.Error())
	}
	if _, exists := s.datasets[record.PackageID]; !exists {
		return nil, statusError(http.StatusNotFound, "Dataset not found: "+record.PackageID)
	}
	if err := record.Validate(); err != nil {
		return nil, statusError(http.StatusConflict, err.Error())
	}
	record.ID = uuid.NewString()
	s.resources[record.ID] = record
	return record, nil
}

func (s *Server) resourceUpdate(body json.RawMessage) (any, error) {
	var record schema.ResourceRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, statusError(http.StatusBadRequest, err.Error())
	}
	if _, exists := s.resources[record.ID]; !exists {
		return nil, statusError(http.StatusNotFound, "Resource not found: "+record.ID)
	}
	if err := record.Validate(); err != nil {
		return nil, statusError(http.StatusConflict, err.Error())
	}
	s.resources[record.ID] = record
	return record, nil
}

func (s *Server) packageShow(body json.RawMessage) (any, error) {
	var req schema.ObjectID
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, statusError(http.StatusBadRequest, err.Error())
	}
	dataset := s.lookup(req.ID)
	if dataset == nil {
		return nil, statusError(http.StatusNotFound, "Dataset not found: "+req.ID)
	}
	result := *dataset
	result.Resources = nil
	for _, record := range s.resources {
		if record.PackageID == dataset.ID {
			result.Resources = append(result.Resources, record.Clone())
		}
	}
	return result, nil
}

func (s *Server) packagePatch(body json.RawMessage) (any, error) {
	var req schema.DatasetPatch
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, statusError(http.StatusBadRequest, err.Error())
	}
	dataset := s.lookup(req.ID)
	if dataset == nil {
		return nil, statusError(http.StatusNotFound, "Dataset not found: "+req.ID)
	}
	if req.State != "" {
		dataset.State = req.State
	}
	return *dataset, nil
}

func (s *Server) lookup(id string) *schema.Dataset {
	if dataset, exists := s.datasets[id]; exists {
		return dataset
	}
	for _, dataset := range s.datasets {
		if dataset.Name == id {
			return dataset
		}
	}
	return nil
}

// httpError is a failure which maps to a response status
type httpError struct {
	status  int
	message string
}

func statusError(status int, message string) error {
	return &httpError{status: status, message: message}
}

func (e *httpError) Error() string {
	return e.message
}

func statusOf(err error) int {
	var e *httpError
	if errors.As(err, &e) {
		return e.status
	}
	return http.StatusInternalServerError
}

func errorType(status int) string {
	switch status {
	case http.StatusForbidden:
		return "Authorization Error"
	case http.StatusNotFound:
		return "Not Found Error"
	case http.StatusConflict:
		return "Validation Error"
	default:
		return "Internal Error"
	}
}
