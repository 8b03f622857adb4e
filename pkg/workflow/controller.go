package workflow

import (
	"context"
	"errors"

	// Packages
	datahub "github.com/mutablelogic/go-datahub"
	schema "github.com/mutablelogic/go-datahub/pkg/schema"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	attribute "go.opentelemetry.io/otel/attribute"
	metric "go.opentelemetry.io/otel/metric"
	noop "go.opentelemetry.io/otel/metric/noop"
	semaphore "golang.org/x/sync/semaphore"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Controller runs uploads for one dataset form. At most one run is active
// at a time.
type Controller struct {
	opts
	packageID string
	authz     datahub.Authorizer
	uploader  datahub.Uploader
	persister datahub.Persister
	finalizer datahub.Finalizer
	sem       *semaphore.Weighted
	runs      metric.Int64Counter
	bytes     metric.Int64Counter
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

// ErrBusy is returned when a run is started while another is active
var ErrBusy = errors.New("an upload is already in progress")

const (
	meterName   = schema.SchemaName + ".workflow"
	metricRuns  = schema.SchemaName + ".workflow.runs"
	metricBytes = schema.SchemaName + ".upload.bytes"
	attrOutcome = "outcome"
	attrAction  = "action"
)

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns a controller for the dataset with the given stages
func New(packageID string, authz datahub.Authorizer, uploader datahub.Uploader, persister datahub.Persister, finalizer datahub.Finalizer, opt ...Opt) (*Controller, error) {
	self := new(Controller)

	// Apply options
	if o, err := applyOpts(opt); err != nil {
		return nil, err
	} else {
		self.opts = o
	}

	// Check the stages
	switch {
	case packageID == "":
		return nil, httpresponse.ErrBadRequest.With("missing dataset")
	case authz == nil:
		return nil, httpresponse.ErrInternalError.With("missing authorizer")
	case uploader == nil:
		return nil, httpresponse.ErrInternalError.With("missing uploader")
	case persister == nil:
		return nil, httpresponse.ErrInternalError.With("missing persister")
	case finalizer == nil:
		return nil, httpresponse.ErrInternalError.With("missing finalizer")
	}
	if err := uploader.Namespace().Validate(); err != nil {
		return nil, err
	}
	self.packageID = packageID
	self.authz = authz
	self.uploader = uploader
	self.persister = persister
	self.finalizer = finalizer
	self.sem = semaphore.NewWeighted(1)

	// Counters
	meter := self.meter
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(meterName)
	}
	if counter, err := meter.Int64Counter(metricRuns, metric.WithDescription("Completed upload workflow runs")); err != nil {
		return nil, err
	} else {
		self.runs = counter
	}
	if counter, err := meter.Int64Counter(metricBytes, metric.WithDescription("Bytes transferred to storage"), metric.WithUnit("By")); err != nil {
		return nil, err
	} else {
		self.bytes = counter
	}

	// Return success
	return self, nil
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// PackageID returns the dataset the controller uploads to
func (c *Controller) PackageID() string {
	return c.packageID
}

// Run performs the upload of the request with the exit action. It blocks
// until the run reaches a terminal state and returns exactly one outcome.
//
// A request without a file is ignored and returns an outcome in the Idle
// state. The go-dataset action makes no remote calls. When another run is
// active the outcome is Failed with ErrBusy.
func (c *Controller) Run(ctx context.Context, req schema.UploadRequest, action schema.Action) schema.Outcome {
	if action == "" {
		action = schema.ActionFinish
	}

	// Nothing selected is a no-op
	if !req.HasFile() {
		c.logger.DebugContext(ctx, "nothing to upload", "package_id", c.packageID)
		return c.record(ctx, schema.Outcome{State: schema.Idle, Action: action, Err: schema.ErrNothingSelected})
	}

	// Only one run at a time
	if !c.sem.TryAcquire(1) {
		c.logger.WarnContext(ctx, "run rejected", "package_id", c.packageID, "error", ErrBusy)
		return schema.Outcome{State: schema.Failed, Action: action, Err: ErrBusy}
	}
	defer c.sem.Release(1)

	// The run works on a copy of the request
	r := &run{Controller: c, req: req.Clone(), action: action, state: schema.Idle}
	return c.record(ctx, r.execute(ctx))
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// record counts the outcome of a run
func (c *Controller) record(ctx context.Context, outcome schema.Outcome) schema.Outcome {
	c.runs.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrOutcome, outcome.State.String()),
		attribute.String(attrAction, string(outcome.Action)),
	))
	return outcome
}

func spanName(op string) string {
	return schema.SchemaName + ".workflow." + op
}
