package ckan

import (
	"context"

	// Packages
	schema "github.com/mutablelogic/go-datahub/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	ActionAuthorize      = "authz_authorize"
	ActionResourceCreate = "resource_create"
	ActionResourceUpdate = "resource_update"
	ActionPackageShow    = "package_show"
	ActionPackagePatch   = "package_patch"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Authorize requests a token carrying the given scopes
func (c *Client) Authorize(ctx context.Context, scopes []string) (*schema.AuthorizeResponse, error) {
	var response schema.AuthorizeResponse
	if err := c.Call(ctx, ActionAuthorize, schema.AuthorizeRequest{Scopes: scopes}, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// ResourceCreate creates a resource and returns the persisted record
func (c *Client) ResourceCreate(ctx context.Context, record schema.ResourceRecord) (*schema.ResourceRecord, error) {
	var response schema.ResourceRecord
	if err := c.Call(ctx, ActionResourceCreate, record, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// ResourceUpdate replaces a resource and returns the persisted record
func (c *Client) ResourceUpdate(ctx context.Context, record schema.ResourceRecord) (*schema.ResourceRecord, error) {
	var response schema.ResourceRecord
	if err := c.Call(ctx, ActionResourceUpdate, record, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// PackageShow returns a dataset by id or name
func (c *Client) PackageShow(ctx context.Context, id string) (*schema.Dataset, error) {
	var response schema.Dataset
	if err := c.Call(ctx, ActionPackageShow, schema.ObjectID{ID: id}, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// PackagePatch updates the given fields of a dataset
func (c *Client) PackagePatch(ctx context.Context, patch schema.DatasetPatch) (*schema.Dataset, error) {
	var response schema.Dataset
	if err := c.Call(ctx, ActionPackagePatch, patch, &response); err != nil {
		return nil, err
	}
	return &response, nil
}
