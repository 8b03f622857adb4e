package workflow

import (
	"net/url"

	// Packages
	schema "github.com/mutablelogic/go-datahub/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	routeDataset     = "dataset"
	routeEdit        = "edit"
	routeNewResource = "new_resource"
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Target returns the page the user is sent to after the action, for the
// dataset. Actions are "again" (a new resource form for the dataset),
// "go-dataset" (the dataset edit page) and "finish" (the dataset page).
func (c *Controller) Target(action schema.Action, packageID string) string {
	switch action {
	case schema.ActionAgain:
		return c.route(routeDataset, routeNewResource, packageID)
	case schema.ActionGoDataset:
		return c.route(routeDataset, routeEdit, packageID)
	default:
		return c.route(routeDataset, packageID)
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (c *Controller) route(elem ...string) string {
	if c.site == "" {
		if target, err := url.JoinPath("/", elem...); err == nil {
			return target
		}
	} else if target, err := url.JoinPath(c.site, elem...); err == nil {
		return target
	}
	return ""
}
