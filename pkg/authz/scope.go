package authz

import (
	"strings"

	// Packages
	schema "github.com/mutablelogic/go-datahub/pkg/schema"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
)

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	scopeEntity   = "obj"
	scopeWildcard = "*"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ResourceScope returns the scope granting actions on objects of a dataset,
// for example "obj:ckan/my-dataset/*:read,write". An empty resource matches
// every object of the dataset and empty actions are "read,write".
func ResourceScope(namespace, dataset, resource, actions string) (string, error) {
	if namespace == "" {
		namespace = schema.DefaultStorageBucket
	}
	if dataset == "" {
		return "", httpresponse.ErrBadRequest.With("scope requires a dataset")
	}
	if resource == "" {
		resource = scopeWildcard
	}
	if actions == "" {
		actions = schema.DefaultScopeActions
	}
	for _, part := range []string{namespace, dataset, resource} {
		if strings.ContainsAny(part, ":/ ") {
			return "", httpresponse.ErrBadRequest.Withf("invalid scope part %q", part)
		}
	}
	return scopeEntity + ":" + namespace + "/" + dataset + "/" + resource + ":" + actions, nil
}
