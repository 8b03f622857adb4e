package ckan_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	// Packages
	ckan "github.com/mutablelogic/go-datahub/pkg/ckan"
	ckantest "github.com/mutablelogic/go-datahub/pkg/ckan/ckantest"
	schema "github.com/mutablelogic/go-datahub/pkg/schema"
	version "github.com/mutablelogic/go-datahub/pkg/version"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, opts ...ckantest.Opt) (*ckan.Client, *ckantest.Server) {
	t.Helper()
	srv := ckantest.New(t, opts...)
	c, err := ckan.New(srv.URL+"/", "")
	require.NoError(t, err)
	return c, srv
}

func TestPackageShow(t *testing.T) {
	c, _ := newTestClient(t, ckantest.WithDataset("ds-1", "my-dataset", schema.DatasetStateDraft))

	dataset, err := c.PackageShow(context.Background(), "ds-1")
	require.NoError(t, err)
	assert.Equal(t, "ds-1", dataset.ID)
	assert.Equal(t, "my-dataset", dataset.Name)
	assert.False(t, dataset.IsActive())

	// Lookup by name
	dataset, err = c.PackageShow(context.Background(), "my-dataset")
	require.NoError(t, err)
	assert.Equal(t, "ds-1", dataset.ID)
}

func TestPackageShow_notFound(t *testing.T) {
	c, _ := newTestClient(t)
	_, err := c.PackageShow(context.Background(), "missing")
	assert.Error(t, err)
}

func TestPackagePatch(t *testing.T) {
	c, srv := newTestClient(t, ckantest.WithDataset("ds-1", "my-dataset", schema.DatasetStateDraft))

	dataset, err := c.PackagePatch(context.Background(), schema.DatasetPatch{ID: "ds-1", State: schema.DatasetStateActive})
	require.NoError(t, err)
	assert.True(t, dataset.IsActive())

	stored, exists := srv.Dataset("ds-1")
	require.True(t, exists)
	assert.Equal(t, schema.DatasetStateActive, stored.State)

	calls := srv.Calls()
	require.Len(t, calls, 1)
	var body map[string]any
	require.NoError(t, json.Unmarshal(calls[0].Body, &body))
	assert.Equal(t, map[string]any{"id": "ds-1", "state": "active"}, body)
}

func TestResourceCreate_update(t *testing.T) {
	c, srv := newTestClient(t, ckantest.WithDataset("ds-1", "my-dataset", schema.DatasetStateActive))

	record := schema.ResourceRecord{
		PackageID: "ds-1",
		URL:       "report.csv",
		URLType:   schema.URLTypeUpload,
		Size:      1024,
		SHA256:    "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08",
		LFSPrefix: "ckan/my-dataset",
		Fields:    map[string]string{"name": "Report", "size": "1"},
	}
	created, err := c.ResourceCreate(context.Background(), record)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, int64(1024), created.Size)
	assert.Equal(t, "Report", created.Field("name"))

	created.Fields["name"] = "Renamed"
	updated, err := c.ResourceUpdate(context.Background(), *created)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Renamed", updated.Field("name"))

	assert.Equal(t, []string{ckan.ActionResourceCreate, ckan.ActionResourceUpdate}, srv.Actions())
	assert.Equal(t, 1, srv.Resources())
}

func TestResourceCreate_validation(t *testing.T) {
	c, _ := newTestClient(t, ckantest.WithDataset("ds-1", "my-dataset", schema.DatasetStateActive))

	_, err := c.ResourceCreate(context.Background(), schema.ResourceRecord{
		PackageID: "ds-1",
		URLType:   schema.URLTypeUpload,
		Size:      10,
		SHA256:    "not-hex",
		LFSPrefix: "ckan/my-dataset",
	})
	assert.Error(t, err)
}

func TestAuthorize(t *testing.T) {
	c, srv := newTestClient(t)

	scopes := []string{"obj:ckan/my-dataset/*:read,write"}
	response, err := c.Authorize(context.Background(), scopes)
	require.NoError(t, err)
	assert.NotEmpty(t, response.Token)
	assert.Equal(t, scopes, response.GrantedScopes)
	assert.NotEmpty(t, response.ExpiresAt)
	assert.Equal(t, []string{ckan.ActionAuthorize}, srv.Actions())
}

func TestCall_failure(t *testing.T) {
	c, srv := newTestClient(t)
	srv.Fail(ckan.ActionAuthorize, http.StatusForbidden, "not allowed")

	_, err := c.Authorize(context.Background(), []string{"obj:ckan/x/*:read"})
	assert.Error(t, err)

	srv.Recover(ckan.ActionAuthorize)
	_, err = c.Authorize(context.Background(), []string{"obj:ckan/x/*:read"})
	assert.NoError(t, err)
}

func TestCall_actionError(t *testing.T) {
	tests := []struct {
		status int
		match  error
		kind   string
	}{
		{http.StatusConflict, httpresponse.ErrConflict, "Validation Error"},
		{http.StatusForbidden, httpresponse.ErrForbidden, "Authorization Error"},
		{http.StatusNotFound, httpresponse.ErrNotFound, "Not Found Error"},
	}
	for _, test := range tests {
		t.Run(http.StatusText(test.status), func(t *testing.T) {
			c, srv := newTestClient(t)
			srv.Fail(ckan.ActionAuthorize, test.status, "not allowed")

			_, err := c.Authorize(context.Background(), []string{"obj:ckan/x/*:read"})
			var actionErr *ckan.ActionError
			require.ErrorAs(t, err, &actionErr)
			assert.Equal(t, test.status, actionErr.Status)
			assert.Equal(t, test.kind, actionErr.Type)
			assert.Equal(t, "not allowed", actionErr.Message)
			assert.ErrorIs(t, err, test.match)
			assert.NotContains(t, err.Error(), "success")
		})
	}
}

func TestCall_validationFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json;charset=utf-8")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"success": false, "error": {"__type": "Validation Error", "sha256": ["Missing value"]}}`))
	}))
	t.Cleanup(srv.Close)

	c, err := ckan.New(srv.URL, "")
	require.NoError(t, err)
	err = c.Call(context.Background(), ckan.ActionResourceCreate, map[string]string{}, nil)

	var actionErr *ckan.ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, []string{"Missing value"}, actionErr.Fields["sha256"])
	assert.Equal(t, "Validation Error: action failed; sha256: Missing value", err.Error())
}

func TestCall_errorWithoutEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	c, err := ckan.New(srv.URL, "")
	require.NoError(t, err)
	err = c.Call(context.Background(), ckan.ActionPackageShow, map[string]string{"id": "x"}, nil)
	require.Error(t, err)

	var actionErr *ckan.ActionError
	assert.False(t, errors.As(err, &actionErr))
	assert.ErrorIs(t, err, httpresponse.ErrGatewayError)
}

func TestCall_userAgent(t *testing.T) {
	var agent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "result": {}}`))
	}))
	t.Cleanup(srv.Close)

	c, err := ckan.New(srv.URL, "")
	require.NoError(t, err)
	require.NoError(t, c.Call(context.Background(), ckan.ActionPackageShow, map[string]string{"id": "x"}, nil))
	assert.Equal(t, version.UserAgent(), agent)
}

func TestCall_apiToken(t *testing.T) {
	srv := ckantest.New(t, ckantest.WithAPIToken("secret"), ckantest.WithDataset("ds-1", "d", schema.DatasetStateActive))

	anonymous, err := ckan.New(srv.URL, "")
	require.NoError(t, err)
	_, err = anonymous.PackageShow(context.Background(), "ds-1")
	assert.Error(t, err)

	authorized, err := ckan.New(srv.URL, "secret")
	require.NoError(t, err)
	_, err = authorized.PackageShow(context.Background(), "ds-1")
	assert.NoError(t, err)
}
