package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	// Packages
	authz "github.com/mutablelogic/go-datahub/pkg/authz"
	lfs "github.com/mutablelogic/go-datahub/pkg/lfs"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type DownloadCommand struct {
	Dataset  string `arg:"" help:"Dataset identifier or name"`
	Resource string `arg:"" help:"Resource identifier"`
	Output   string `name:"output" short:"o" type:"path" help:"Write the object to a file (default prints the download link)"`
	Ref      string `name:"ref" help:"Git ref sent with storage batch requests"`
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (cmd *DownloadCommand) Run(app App) error {
	site, err := app.CKAN()
	if err != nil {
		return err
	}

	// Find where the resource was stored
	dataset, err := site.PackageShow(app.Context(), cmd.Dataset)
	if err != nil {
		return err
	}
	resource, ok := dataset.Resource(cmd.Resource)
	if !ok {
		return httpresponse.ErrNotFound.Withf("resource %q not found in dataset %q", cmd.Resource, dataset.Name)
	}
	ns, object, err := resource.StorageObject()
	if err != nil {
		return err
	}

	// Read access to the one resource is enough
	scope, err := authz.ResourceScope(ns.Bucket, ns.Prefix, resource.ID, "read")
	if err != nil {
		return err
	}
	provider, err := authz.New(site)
	if err != nil {
		return err
	}
	token, err := provider.Authorize(app.Context(), scope)
	if err != nil {
		return err
	}

	downloader, err := lfs.NewDownloader(app.GetStorage(), lfs.WithRef(cmd.Ref), lfs.WithClientOpt(app.ClientOpts()...))
	if err != nil {
		return err
	}
	if cmd.Output == "" {
		action, err := downloader.Resolve(app.Context(), ns, object, token)
		if err != nil {
			return err
		}
		fmt.Println(action.Href)
		return nil
	}

	// Write to a temporary file, renamed once the content is verified
	f, err := os.CreateTemp(filepath.Dir(cmd.Output), ".datahub-*")
	if err != nil {
		return err
	}
	n, err := downloader.Fetch(app.Context(), ns, object, token, f, nil)
	if err = errors.Join(err, f.Close()); err == nil {
		err = os.Rename(f.Name(), cmd.Output)
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return err
	}
	app.Logger().Debug("downloaded", "resource", resource.ID, "bytes", n, "path", cmd.Output)
	return nil
}
