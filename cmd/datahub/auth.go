package main

import (
	"encoding/json"
	"fmt"
	"os"

	// Packages
	authz "github.com/mutablelogic/go-datahub/pkg/authz"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type AuthCommands struct {
	Authorize AuthorizeCommand `cmd:"" group:"AUTHORIZATION" help:"Request a storage token for scopes"`
	Scope     ScopeCommand     `cmd:"" group:"AUTHORIZATION" help:"Print the scope for objects of a dataset"`
}

type AuthorizeCommand struct {
	Scopes  []string `arg:"" help:"Scopes to request, for example obj:ckan/my-dataset/*:write"`
	NoCheck bool     `name:"no-check" help:"Accept a token which does not grant every scope"`
	Show    bool     `name:"show" help:"Print the token and its grants as JSON"`
}

type ScopeCommand struct {
	Dataset  string `arg:"" help:"Dataset name"`
	Resource string `name:"resource" short:"r" help:"Resource identifier (default is every resource)"`
	Bucket   string `name:"bucket" help:"Storage bucket" default:"ckan"`
	Actions  string `name:"actions" help:"Comma-separated actions" default:"read,write"`
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (cmd *AuthorizeCommand) Run(app App) error {
	site, err := app.CKAN()
	if err != nil {
		return err
	}
	var opts []authz.Opt
	if cmd.NoCheck {
		opts = append(opts, authz.WithoutScopeCheck())
	}
	provider, err := authz.New(site, opts...)
	if err != nil {
		return err
	}
	token, err := provider.Authorize(app.Context(), cmd.Scopes...)
	if err != nil {
		return err
	}
	app.Logger().Debug("authorized", "granted", token.GrantedScopes, "expires", token.ExpiresAt)
	if cmd.Show {
		return printJSON(struct {
			Token string `json:"token"`
			Grant any    `json:"grant"`
		}{token.Value, token})
	}
	fmt.Println(token.Value)
	return nil
}

func (cmd *ScopeCommand) Run(app App) error {
	scope, err := authz.ResourceScope(cmd.Bucket, cmd.Dataset, cmd.Resource, cmd.Actions)
	if err != nil {
		return err
	}
	fmt.Println(scope)
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
