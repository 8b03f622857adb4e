package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	// Packages
	otel "github.com/mutablelogic/go-client/pkg/otel"
	metadata "github.com/mutablelogic/go-datahub/pkg/metadata"
	schema "github.com/mutablelogic/go-datahub/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// run is the state of a single upload
type run struct {
	*Controller
	req    schema.UploadRequest
	action schema.Action
	state  schema.State
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (r *run) execute(ctx context.Context) (outcome schema.Outcome) {
	var result error
	ctx, endFunc := otel.StartSpan(r.tracer, ctx, spanName("Run"))
	defer func() {
		if outcome.State == schema.Failed {
			result = outcome.Err
		}
		endFunc(result)
	}()

	// Leaving for the edit page saves nothing
	if r.action == schema.ActionGoDataset {
		r.transition(ctx, schema.Redirecting)
		target := r.Target(r.action, r.packageID)
		r.control.SetSaveDisabled(false)
		r.navigate(ctx, target)
		r.transition(ctx, schema.Succeeded)
		return schema.Outcome{State: r.state, Action: r.action, Target: target, Err: schema.ErrEditDataset}
	}

	// Disable the save control until a terminal state
	r.control.SetSaveDisabled(true)

	ns, err := r.namespace()
	if err != nil {
		return r.fail(ctx, err)
	}

	// Authorize
	r.transition(ctx, schema.AwaitingToken)
	token, err := r.authorize(ctx)
	if err != nil {
		return r.fail(ctx, err)
	}

	// Push the file
	r.transition(ctx, schema.Uploading)
	obj, err := r.push(ctx, token)
	if err != nil {
		return r.fail(ctx, err)
	}
	if obj.Prefix == "" {
		obj.Prefix = ns.String()
	}

	// Save the resource record
	r.transition(ctx, schema.PersistingMetadata)
	record, err := r.save(ctx, obj)
	if err != nil {
		return r.fail(ctx, err, "oid", obj.ContentAddress)
	}

	// Activate the dataset when it is still a draft
	warning := r.finalize(ctx, record.PackageID)

	// Report and navigate
	r.transition(ctx, schema.Redirecting)
	target := r.Target(r.action, record.PackageID)
	if warning != nil {
		r.notifier.Notify(schema.LevelWarning, fmt.Sprintf("%s: %v", msgNotActivated, warning))
	} else {
		r.notifier.Notify(schema.LevelSuccess, msgSuccess)
	}
	proceed := r.wait(ctx)
	r.control.SetSaveDisabled(false)
	if proceed {
		r.navigate(ctx, target)
	} else {
		r.logger.WarnContext(ctx, "navigation cancelled", "package_id", record.PackageID, "target", target, "error", ctx.Err())
	}
	r.transition(ctx, schema.Succeeded)

	r.logger.InfoContext(ctx, "resource saved",
		"package_id", record.PackageID,
		"resource_id", record.ID,
		"oid", obj.ContentAddress,
		"size", obj.SizeBytes,
		"existed", obj.AlreadyExisted,
	)
	return schema.Outcome{State: r.state, Action: r.action, Target: target, Object: obj, Resource: record, Warning: warning}
}

// namespace returns the namespace of the uploader, which the request must
// match when it names one
func (r *run) namespace() (schema.Namespace, error) {
	ns := r.uploader.Namespace()
	if r.req.Namespace.IsZero() {
		r.req.Namespace = ns
	} else if r.req.Namespace != ns {
		return ns, schema.StorageTransferError("namespace", fmt.Errorf("request namespace %q does not match storage namespace %q", r.req.Namespace, ns))
	}
	return ns, nil
}

func (r *run) authorize(ctx context.Context) (_ *schema.AuthToken, err error) {
	ctx, endFunc := otel.StartSpan(r.tracer, ctx, spanName("Authorize"))
	defer func() { endFunc(err) }()

	scopes := r.req.Scopes
	if len(scopes) == 0 {
		scopes = r.scopes
	}
	return r.authz.Authorize(ctx, scopes...)
}

func (r *run) push(ctx context.Context, token *schema.AuthToken) (_ *schema.StorageObjectRef, err error) {
	ctx, endFunc := otel.StartSpan(r.tracer, ctx, spanName("Push"))
	defer func() { endFunc(err) }()

	r.progress.Start(r.req.File.Name, r.req.File.Size)
	obj, err := r.uploader.Push(ctx, r.req.File, token, r.progress.Update)
	if err != nil {
		return nil, err
	} else if obj == nil {
		return nil, schema.StorageTransferError("push", errors.New("no object returned"))
	}
	r.progress.Done()

	if obj.AlreadyExisted {
		r.notifier.Notify(schema.LevelInfo, msgAlreadyStored)
	} else {
		r.bytes.Add(ctx, obj.SizeBytes)
	}
	return obj, nil
}

func (r *run) save(ctx context.Context, obj *schema.StorageObjectRef) (_ *schema.ResourceRecord, err error) {
	ctx, endFunc := otel.StartSpan(r.tracer, ctx, spanName("Save"))
	defer func() { endFunc(err) }()

	record, err := r.persister.Save(ctx, metadata.NewRecord(r.packageID, r.req.ResourceID, obj, r.req.Fields))
	if err != nil {
		return nil, err
	} else if record == nil {
		return nil, schema.PersistenceError("save", errors.New("no record returned"))
	}

	// The persisted checksum and size are those of the stored object
	if record.SHA256 != "" && record.SHA256 != obj.ContentAddress {
		return nil, schema.PersistenceError("save", fmt.Errorf("persisted sha256 %q does not match %q", record.SHA256, obj.ContentAddress))
	} else if record.Size != 0 && record.Size != obj.SizeBytes {
		return nil, schema.PersistenceError("save", fmt.Errorf("persisted size %d does not match %d", record.Size, obj.SizeBytes))
	}
	return record, nil
}

// finalize activates the dataset for the finish action when it is a draft,
// and returns any failure, which does not fail the run
func (r *run) finalize(ctx context.Context, packageID string) (err error) {
	if r.action != schema.ActionFinish {
		return nil
	}

	ctx, endFunc := otel.StartSpan(r.tracer, ctx, spanName("Finalize"))
	defer func() { endFunc(err) }()

	pending, err := r.finalizer.Pending(ctx, packageID)
	if err != nil {
		r.logger.WarnContext(ctx, "dataset state unknown", "package_id", packageID, "error", err)
		return err
	} else if !pending {
		return nil
	}

	r.transition(ctx, schema.Finalizing)
	if err := r.finalizer.Activate(ctx, packageID); err != nil {
		r.logger.WarnContext(ctx, "dataset not activated", "package_id", packageID, "error", err)
		return err
	}
	return nil
}

// wait sleeps for the redirect delay and reports false if the context was
// cancelled first
func (r *run) wait(ctx context.Context) bool {
	if r.delay <= 0 {
		return true
	}
	timer := time.NewTimer(r.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (r *run) navigate(ctx context.Context, target string) {
	r.logger.DebugContext(ctx, "navigate", "package_id", r.packageID, "target", target)
	if r.navigator != nil {
		r.navigator.Navigate(target)
	}
}

// fail moves the run to the Failed state, leaving the request untouched
func (r *run) fail(ctx context.Context, err error, args ...any) schema.Outcome {
	r.transition(ctx, schema.Failed)
	r.control.SetSaveDisabled(false)
	r.progress.Fail(err)
	r.notifier.Notify(schema.LevelError, err.Error())

	args = append([]any{"package_id", r.packageID, "resource_id", r.req.ResourceID, "error", err}, args...)
	r.logger.ErrorContext(ctx, "upload failed", args...)
	return schema.Outcome{State: r.state, Action: r.action, Err: err}
}

func (r *run) transition(ctx context.Context, to schema.State) {
	from := r.state
	r.state = to
	r.logger.DebugContext(ctx, "transition", "package_id", r.packageID, "from", from.String(), "to", to.String())
	if r.observer != nil {
		r.observer(from, to)
	}
}
