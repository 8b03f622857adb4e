package metadata_test

import (
	"context"
	"net/http"
	"testing"

	// Packages
	ckan "github.com/mutablelogic/go-datahub/pkg/ckan"
	ckantest "github.com/mutablelogic/go-datahub/pkg/ckan/ckantest"
	metadata "github.com/mutablelogic/go-datahub/pkg/metadata"
	schema "github.com/mutablelogic/go-datahub/pkg/schema"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

const testOID = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

func newTestClient(t *testing.T, opts ...ckantest.Opt) (*ckan.Client, *ckantest.Server) {
	t.Helper()
	srv := ckantest.New(t, opts...)
	c, err := ckan.New(srv.URL, "")
	require.NoError(t, err)
	return c, srv
}

func testObject() *schema.StorageObjectRef {
	return &schema.StorageObjectRef{
		ContentAddress: testOID,
		SizeBytes:      500000,
		Name:           "report.csv",
		Prefix:         "ckan/my-dataset",
	}
}

func TestNewRecord(t *testing.T) {
	record := metadata.NewRecord("ds-1", "", testObject(), map[string]string{
		"name":   "Quarterly report",
		"size":   "12",
		"sha256": "client-supplied",
	})

	assert.Empty(t, record.ID)
	assert.Equal(t, "ds-1", record.PackageID)
	assert.Equal(t, "report.csv", record.URL)
	assert.Equal(t, schema.URLTypeUpload, record.URLType)
	assert.Equal(t, int64(500000), record.Size)
	assert.Equal(t, testOID, record.SHA256)
	assert.Equal(t, "ckan/my-dataset", record.LFSPrefix)
	assert.Equal(t, "Quarterly report", record.Field("name"))
	assert.NoError(t, record.Validate())

	data, err := record.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"package_id": "ds-1",
		"url": "report.csv",
		"url_type": "upload",
		"size": 500000,
		"sha256": "`+testOID+`",
		"lfs_prefix": "ckan/my-dataset",
		"name": "Quarterly report"
	}`, string(data))
}

func TestNewRecord_fieldsCopied(t *testing.T) {
	fields := map[string]string{"name": "a"}
	record := metadata.NewRecord("ds-1", "", testObject(), fields)
	fields["name"] = "b"
	assert.Equal(t, "a", record.Field("name"))
}

func TestSave_create(t *testing.T) {
	c, srv := newTestClient(t, ckantest.WithDataset("ds-1", "my-dataset", schema.DatasetStateDraft))
	p, err := metadata.NewPersister(c)
	require.NoError(t, err)

	result, err := p.Save(context.Background(), metadata.NewRecord("ds-1", "", testObject(), nil))
	require.NoError(t, err)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "ds-1", result.PackageID)
	assert.Equal(t, testOID, result.SHA256)
	assert.Equal(t, int64(500000), result.Size)
	assert.Equal(t, []string{ckan.ActionResourceCreate}, srv.Actions())
}

func TestSave_update(t *testing.T) {
	c, srv := newTestClient(t,
		ckantest.WithDataset("ds-1", "my-dataset", schema.DatasetStateActive),
		ckantest.WithResource(schema.ResourceRecord{ID: "r-1", PackageID: "ds-1", URL: "old.csv"}),
	)
	p, err := metadata.NewPersister(c)
	require.NoError(t, err)

	result, err := p.Save(context.Background(), metadata.NewRecord("ds-1", "r-1", testObject(), nil))
	require.NoError(t, err)
	assert.Equal(t, "r-1", result.ID)
	assert.Equal(t, []string{ckan.ActionResourceUpdate}, srv.Actions())

	stored, exists := srv.Resource("r-1")
	require.True(t, exists)
	assert.Equal(t, "report.csv", stored.URL)
	assert.Equal(t, testOID, stored.SHA256)
}

func TestSave_failures(t *testing.T) {
	t.Run("Invalid", func(t *testing.T) {
		c, srv := newTestClient(t)
		p, err := metadata.NewPersister(c)
		require.NoError(t, err)

		_, err = p.Save(context.Background(), metadata.NewRecord("ds-1", "", nil, nil))
		assert.ErrorIs(t, err, schema.ErrPersistence)
		assert.Empty(t, srv.Calls())
	})

	t.Run("Conflict", func(t *testing.T) {
		c, srv := newTestClient(t, ckantest.WithDataset("ds-1", "my-dataset", schema.DatasetStateActive))
		srv.Fail(ckan.ActionResourceCreate, http.StatusConflict, "conflict")
		p, err := metadata.NewPersister(c)
		require.NoError(t, err)

		_, err = p.Save(context.Background(), metadata.NewRecord("ds-1", "", testObject(), nil))
		assert.ErrorIs(t, err, schema.ErrPersistence)
		assert.ErrorIs(t, err, httpresponse.ErrConflict)
		var actionErr *ckan.ActionError
		require.ErrorAs(t, err, &actionErr)
		assert.Equal(t, "conflict", actionErr.Message)
	})

	t.Run("UnknownResource", func(t *testing.T) {
		c, _ := newTestClient(t, ckantest.WithDataset("ds-1", "my-dataset", schema.DatasetStateActive))
		p, err := metadata.NewPersister(c)
		require.NoError(t, err)

		_, err = p.Save(context.Background(), metadata.NewRecord("ds-1", "r-404", testObject(), nil))
		assert.ErrorIs(t, err, schema.ErrPersistence)
	})
}

func TestFinalizer(t *testing.T) {
	c, srv := newTestClient(t, ckantest.WithDataset("ds-1", "my-dataset", schema.DatasetStateDraft))
	f, err := metadata.NewFinalizer(c)
	require.NoError(t, err)

	pending, err := f.Pending(context.Background(), "ds-1")
	require.NoError(t, err)
	assert.True(t, pending)

	require.NoError(t, f.Activate(context.Background(), "ds-1"))
	dataset, _ := srv.Dataset("ds-1")
	assert.Equal(t, schema.DatasetStateActive, dataset.State)

	pending, err = f.Pending(context.Background(), "ds-1")
	require.NoError(t, err)
	assert.False(t, pending)

	// Activating again is not an error
	assert.NoError(t, f.Activate(context.Background(), "ds-1"))
}

func TestFinalizer_failures(t *testing.T) {
	c, srv := newTestClient(t, ckantest.WithDataset("ds-1", "my-dataset", schema.DatasetStateDraft))
	f, err := metadata.NewFinalizer(c)
	require.NoError(t, err)

	_, err = f.Pending(context.Background(), "missing")
	assert.ErrorIs(t, err, schema.ErrFinalization)

	srv.Fail(ckan.ActionPackagePatch, http.StatusInternalServerError, "database locked")
	err = f.Activate(context.Background(), "ds-1")
	assert.ErrorIs(t, err, schema.ErrFinalization)

	assert.ErrorIs(t, f.Activate(context.Background(), ""), schema.ErrFinalization)
}
