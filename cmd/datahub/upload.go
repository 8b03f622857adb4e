package main

import (
	"fmt"
	"os"
	"time"

	// Packages
	authz "github.com/mutablelogic/go-datahub/pkg/authz"
	config "github.com/mutablelogic/go-datahub/pkg/config"
	console "github.com/mutablelogic/go-datahub/pkg/console"
	lfs "github.com/mutablelogic/go-datahub/pkg/lfs"
	metadata "github.com/mutablelogic/go-datahub/pkg/metadata"
	schema "github.com/mutablelogic/go-datahub/pkg/schema"
	workflow "github.com/mutablelogic/go-datahub/pkg/workflow"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type UploadCommands struct {
	Upload   UploadCommand   `cmd:"" group:"RESOURCES" help:"Upload a file and save it as a dataset resource"`
	Download DownloadCommand `cmd:"" group:"RESOURCES" help:"Print the download link of a resource, or save it to a file"`
	Dataset  DatasetCommand  `cmd:"" group:"RESOURCES" help:"Show a dataset and its resources"`
}

type UploadCommand struct {
	File     string            `arg:"" type:"existingfile" help:"File to upload"`
	Dataset  string            `name:"dataset" short:"d" required:"" help:"Dataset identifier or name"`
	Resource string            `name:"resource" short:"r" help:"Resource identifier to update (default creates a new resource)"`
	Action   string            `name:"action" enum:"finish,again,go-dataset" default:"finish" help:"Where to go once saved (finish, again, go-dataset)"`
	Scope    string            `name:"scope" help:"Authorization scope (defaults to every object of the dataset)"`
	Field    map[string]string `name:"field" short:"f" help:"Resource field as key=value, for example name=Report"`
	Ref      string            `name:"ref" help:"Git ref sent with storage batch requests"`
	Delay    time.Duration     `name:"delay" default:"0s" help:"Pause before navigating"`
	Open     bool              `name:"open" help:"Open the resulting page in a browser"`
}

type DatasetCommand struct {
	ID string `arg:"" help:"Dataset identifier or name"`
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (cmd *UploadCommand) Run(app App) error {
	action, err := schema.ParseAction(cmd.Action)
	if err != nil {
		return err
	}
	file, err := schema.OpenFile(cmd.File)
	if err != nil {
		return err
	}

	// The namespace defaults to the dataset, within the default bucket
	namespace := app.GetNamespace()
	if namespace == "" {
		namespace = cmd.Dataset
	}
	ns, err := schema.ParseNamespace(namespace)
	if err != nil {
		return err
	}
	scope := cmd.Scope
	if scope == "" {
		if scope, err = authz.ResourceScope(ns.Bucket, ns.Prefix, cmd.Resource, ""); err != nil {
			return err
		}
	}
	cfg, err := config.New(app.GetSite(), app.GetStorage(), ns.String(), scope, cmd.Dataset)
	if err != nil {
		return err
	}

	// Stages
	site, err := app.CKAN()
	if err != nil {
		return err
	}
	authorizer, err := authz.New(site)
	if err != nil {
		return err
	}
	uploader, err := lfs.New(cfg.StorageURL, cfg.Namespace, lfs.WithRef(cmd.Ref), lfs.WithClientOpt(app.ClientOpts()...))
	if err != nil {
		return err
	}
	persister, err := metadata.NewPersister(site)
	if err != nil {
		return err
	}
	finalizer, err := metadata.NewFinalizer(site)
	if err != nil {
		return err
	}

	// Console
	var opts []console.Opt
	if cmd.Open {
		opts = append(opts, console.WithBrowser())
	}
	controller, err := workflow.New(cfg.PackageID, authorizer, uploader, persister, finalizer,
		workflow.WithUI(console.New(os.Stderr, opts...)),
		workflow.WithLogger(app.Logger()),
		workflow.WithScopes(cfg.Scopes()...),
		workflow.WithSite(cfg.SiteURL),
		workflow.WithRedirectDelay(cmd.Delay),
	)
	if err != nil {
		return err
	}

	// Run the workflow and print where it ended
	outcome := controller.Run(app.Context(), schema.UploadRequest{
		File:       file,
		ResourceID: cmd.Resource,
		Fields:     cmd.Field,
	}, action)
	if outcome.State == schema.Failed {
		return outcome.Err
	}
	if outcome.Target != "" {
		fmt.Println(outcome.Target)
	}
	return nil
}

func (cmd *DatasetCommand) Run(app App) error {
	site, err := app.CKAN()
	if err != nil {
		return err
	}
	dataset, err := site.PackageShow(app.Context(), cmd.ID)
	if err != nil {
		return err
	}
	return printJSON(dataset)
}
