package workflow

import (
	"log/slog"
	"net/url"
	"time"

	// Packages
	schema "github.com/mutablelogic/go-datahub/pkg/schema"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	metric "go.opentelemetry.io/otel/metric"
	trace "go.opentelemetry.io/otel/trace"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Opt is a functional option for New
type Opt func(*opts) error

type opts struct {
	control   Control
	notifier  Notifier
	progress  Progress
	navigator Navigator
	logger    *slog.Logger
	tracer    trace.Tracer
	meter     metric.Meter
	observer  func(from, to schema.State)
	scopes    []string
	site      string
	delay     time.Duration
}

////////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithUI sets every user interface collaborator
func WithUI(ui UI) Opt {
	return func(o *opts) error {
		o.control, o.notifier, o.progress, o.navigator = ui, ui, ui, ui
		return nil
	}
}

// WithControl sets the save control
func WithControl(control Control) Opt {
	return func(o *opts) error {
		o.control = control
		return nil
	}
}

// WithNotifier sets where user notifications are shown
func WithNotifier(notifier Notifier) Opt {
	return func(o *opts) error {
		o.notifier = notifier
		return nil
	}
}

// WithProgress sets where transfer progress is shown
func WithProgress(progress Progress) Opt {
	return func(o *opts) error {
		o.progress = progress
		return nil
	}
}

// WithNavigator sets the navigator which receives the final target. Without
// one the target is only returned in the outcome.
func WithNavigator(navigator Navigator) Opt {
	return func(o *opts) error {
		o.navigator = navigator
		return nil
	}
}

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Opt {
	return func(o *opts) error {
		o.logger = logger
		return nil
	}
}

// WithTracer sets the tracer used for tracing runs and stages
func WithTracer(tracer trace.Tracer) Opt {
	return func(o *opts) error {
		o.tracer = tracer
		return nil
	}
}

// WithMeter sets the meter used for run and byte counters
func WithMeter(meter metric.Meter) Opt {
	return func(o *opts) error {
		o.meter = meter
		return nil
	}
}

// WithObserver sets a function called on every state transition
func WithObserver(fn func(from, to schema.State)) Opt {
	return func(o *opts) error {
		o.observer = fn
		return nil
	}
}

// WithScopes sets the scopes requested when a request carries none
func WithScopes(scopes ...string) Opt {
	return func(o *opts) error {
		o.scopes = append(o.scopes, scopes...)
		return nil
	}
}

// WithSite sets the site URL that navigation targets are joined to. The
// default is to return paths such as "/dataset/ds-1".
func WithSite(site string) Opt {
	return func(o *opts) error {
		if site == "" {
			o.site = ""
			return nil
		}
		u, err := url.Parse(site)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return httpresponse.ErrBadRequest.Withf("invalid site URL %q", site)
		}
		o.site = site
		return nil
	}
}

// WithRedirectDelay sets how long to wait after the success notification
// before navigating
func WithRedirectDelay(delay time.Duration) Opt {
	return func(o *opts) error {
		if delay < 0 {
			return httpresponse.ErrBadRequest.Withf("invalid redirect delay %v", delay)
		}
		o.delay = delay
		return nil
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func applyOpts(opt []Opt) (opts, error) {
	o := opts{
		control:   nopUI{},
		notifier:  nopUI{},
		progress:  nopUI{},
		navigator: nil,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, fn := range opt {
		if err := fn(&o); err != nil {
			return opts{}, err
		}
	}

	// Options may have been set to nil
	if o.control == nil {
		o.control = nopUI{}
	}
	if o.notifier == nil {
		o.notifier = nopUI{}
	}
	if o.progress == nil {
		o.progress = nopUI{}
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o, nil
}
