package workflow_test

import (
	"context"
	"sync"

	// Packages
	schema "github.com/mutablelogic/go-datahub/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// STAGES

// stages records the calls made to every stage, in order
type stages struct {
	mu    sync.Mutex
	calls []string
	ui    *recorder

	token      *schema.AuthToken
	authErr    error
	scopes     []string
	ns         schema.Namespace
	object     *schema.StorageObjectRef
	pushErr    error
	pushHook   func()
	saved      []schema.ResourceRecord
	result     *schema.ResourceRecord
	saveErr    error
	pending    bool
	pendingErr error
	activate   []string
	activeErr  error

	// save control state seen by each stage
	disabled []bool
}

func newStages(ui *recorder) *stages {
	return &stages{
		ui:    ui,
		token: &schema.AuthToken{Value: "token", GrantedScopes: []string{"storage:write"}},
		ns:    schema.Namespace{Bucket: "ckan", Prefix: "my-dataset"},
	}
}

func (s *stages) called(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
	if s.ui != nil {
		s.disabled = append(s.disabled, s.ui.saveDisabled())
	}
}

func (s *stages) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *stages) Authorize(_ context.Context, scopes ...string) (*schema.AuthToken, error) {
	s.called("authorize")
	s.scopes = scopes
	if s.authErr != nil {
		return nil, s.authErr
	}
	return s.token, nil
}

func (s *stages) Namespace() schema.Namespace {
	return s.ns
}

func (s *stages) Push(_ context.Context, _ schema.File, _ *schema.AuthToken, fn func(float64)) (*schema.StorageObjectRef, error) {
	s.called("push")
	if s.pushHook != nil {
		s.pushHook()
	}
	if s.pushErr != nil {
		return nil, s.pushErr
	}
	if !s.object.AlreadyExisted {
		fn(0.5)
	}
	fn(1)
	obj := *s.object
	return &obj, nil
}

func (s *stages) Save(_ context.Context, record schema.ResourceRecord) (*schema.ResourceRecord, error) {
	s.called("save")
	s.saved = append(s.saved, record.Clone())
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	result := *s.result
	return &result, nil
}

func (s *stages) Pending(_ context.Context, packageID string) (bool, error) {
	s.called("pending")
	return s.pending, s.pendingErr
}

func (s *stages) Activate(_ context.Context, packageID string) error {
	s.called("activate")
	s.activate = append(s.activate, packageID)
	return s.activeErr
}

////////////////////////////////////////////////////////////////////////////////
// UI

type note struct {
	level   schema.Level
	message string
}

// recorder implements the user interface and records what it was told
type recorder struct {
	mu        sync.Mutex
	disabled  bool
	control   []bool
	notes     []note
	fractions []float64
	started   []string
	done      int
	failed    []error
	navigated []string
}

func (r *recorder) saveDisabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disabled
}

func (r *recorder) SetSaveDisabled(disabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disabled = disabled
	r.control = append(r.control, disabled)
}

func (r *recorder) Notify(level schema.Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, note{level, message})
}

func (r *recorder) Start(name string, _ int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, name)
}

func (r *recorder) Update(fraction float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fractions = append(r.fractions, fraction)
}

func (r *recorder) Done() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done++
}

func (r *recorder) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, err)
}

func (r *recorder) Navigate(target string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.navigated = append(r.navigated, target)
}

func (r *recorder) levels(level schema.Level) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []string
	for _, n := range r.notes {
		if n.level == level {
			result = append(result, n.message)
		}
	}
	return result
}
