package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Packages
	client "github.com/mutablelogic/go-client"
	ckan "github.com/mutablelogic/go-datahub/pkg/ckan"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type Globals struct {
	Site      string        `name:"site" env:"DATAHUB_SITE" default:"http://localhost:5000" help:"CKAN site URL"`
	Storage   string        `name:"storage" env:"DATAHUB_STORAGE" default:"http://localhost:9419" help:"Git LFS server URL"`
	Namespace string        `name:"namespace" env:"DATAHUB_NAMESPACE" help:"Storage namespace as bucket/prefix (defaults to the dataset)"`
	Token     string        `name:"token" env:"DATAHUB_API_TOKEN" help:"CKAN API token"`
	Timeout   time.Duration `name:"timeout" env:"DATAHUB_TIMEOUT" default:"30s" help:"Timeout for metadata requests"`
	Debug     bool          `help:"Enable debug output"`
	Trace     bool          `help:"Trace HTTP requests"`

	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

type App interface {
	Context() context.Context
	Logger() *slog.Logger
	ClientOpts() []client.ClientOpt
	CKAN() (*ckan.Client, error)
	GetSite() string
	GetStorage() string
	GetNamespace() string
	GetDebug() bool
}

var _ App = (*Globals)(nil)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func NewApp(app Globals) *Globals {
	// This context is cancelled when the process receives a SIGINT or SIGTERM
	app.ctx, app.cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// Log to stderr
	level := slog.LevelInfo
	if app.GetDebug() {
		level = slog.LevelDebug
	}
	app.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// Return the app
	return &app
}

func (app *Globals) Close() error {
	app.cancel()
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// METHODS

func (app *Globals) Context() context.Context {
	return app.ctx
}

func (app *Globals) Logger() *slog.Logger {
	return app.logger
}

func (app *Globals) GetSite() string {
	return app.Site
}

func (app *Globals) GetStorage() string {
	return app.Storage
}

func (app *Globals) GetNamespace() string {
	return app.Namespace
}

func (app *Globals) GetDebug() bool {
	return app.Debug || app.Trace
}

// ClientOpts returns the HTTP client options shared by every remote service
func (app *Globals) ClientOpts() []client.ClientOpt {
	opts := []client.ClientOpt{}
	if app.Trace {
		opts = append(opts, client.OptTrace(os.Stderr, app.Debug))
	}
	return opts
}

// CKAN returns an action API client for the site
func (app *Globals) CKAN() (*ckan.Client, error) {
	opts := app.ClientOpts()
	if app.Timeout > 0 {
		opts = append(opts, client.OptTimeout(app.Timeout))
	}
	return ckan.New(app.Site, app.Token, opts...)
}
