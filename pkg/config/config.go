// Package config holds the configuration surface supplied by the hosting
// environment: the site and storage URLs, the storage namespace, the
// authorization scope and the owning dataset.
package config

import (
	"net/url"
	"strings"

	// Packages
	schema "github.com/mutablelogic/go-datahub/pkg/schema"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Config is validated once, when the workflow is constructed
type Config struct {
	SiteURL    string           `json:"site_url"`    // CKAN site, e.g. https://demo.ckan.org
	StorageURL string           `json:"storage_url"` // Git LFS server
	Namespace  schema.Namespace `json:"namespace"`   // bucket and prefix
	Scope      string           `json:"scope"`       // required authorization scope
	PackageID  string           `json:"package_id"`  // owning dataset
	APIToken   string           `json:"-"`           // optional CKAN API token
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New returns a validated configuration. The namespace is given in
// "bucket/prefix" form and parsed here, not on each run.
func New(site, storage, namespace, scope, packageID string) (*Config, error) {
	ns, err := schema.ParseNamespace(namespace)
	if err != nil {
		return nil, err
	}
	c := &Config{
		SiteURL:    site,
		StorageURL: storage,
		Namespace:  ns,
		Scope:      scope,
		PackageID:  packageID,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Validate checks every value is present and normalises the URLs
func (c *Config) Validate() error {
	if site, err := validURL("site", c.SiteURL); err != nil {
		return err
	} else {
		c.SiteURL = site
	}
	if storage, err := validURL("storage", c.StorageURL); err != nil {
		return err
	} else {
		c.StorageURL = storage
	}
	if err := c.Namespace.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Scope) == "" {
		return httpresponse.ErrBadRequest.With("authorization scope is empty")
	}
	if strings.TrimSpace(c.PackageID) == "" {
		return httpresponse.ErrBadRequest.With("dataset identifier is empty")
	}
	return nil
}

// Scopes returns the scopes to request for an upload
func (c *Config) Scopes() []string {
	return []string{c.Scope}
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// validURL requires an absolute http(s) URL and trims any trailing slash
func validURL(name, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", httpresponse.ErrBadRequest.Withf("%s URL is empty", name)
	}
	u, err := url.Parse(v)
	if err != nil {
		return "", httpresponse.ErrBadRequest.Withf("invalid %s URL: %s", name, err)
	} else if u.Scheme != "http" && u.Scheme != "https" {
		return "", httpresponse.ErrBadRequest.Withf("invalid %s URL scheme: %q", name, u.Scheme)
	} else if u.Host == "" {
		return "", httpresponse.ErrBadRequest.Withf("%s URL has no host: %q", name, v)
	}
	return strings.TrimRight(u.String(), "/"), nil
}
