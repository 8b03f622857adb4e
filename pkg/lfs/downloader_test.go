package lfs_test

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	// Packages
	lfs "github.com/mutablelogic/go-datahub/pkg/lfs"
	lfstest "github.com/mutablelogic/go-datahub/pkg/lfs/lfstest"
	schema "github.com/mutablelogic/go-datahub/pkg/schema"
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	assert "github.com/stretchr/testify/assert"
	require "github.com/stretchr/testify/require"
)

func newTestDownloader(t *testing.T, opts ...lfstest.Opt) (*lfs.Downloader, *lfstest.Server) {
	t.Helper()
	srv := lfstest.New(t, append([]lfstest.Opt{lfstest.WithToken(testToken)}, opts...)...)
	d, err := lfs.NewDownloader(srv.URL)
	require.NoError(t, err)
	return d, srv
}

func TestNewDownloader_empty(t *testing.T) {
	_, err := lfs.NewDownloader(" ")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	d, srv := newTestDownloader(t)
	data := []byte("col1,col2\n1,2\n")
	oid, err := srv.Put(testNamespace, data)
	require.NoError(t, err)

	action, err := d.Resolve(context.Background(), testNamespace, schema.BatchObject{OID: oid, Size: int64(len(data))}, token())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(action.Href, "/ckan/my-dataset/objects/"+oid))
	assert.Equal(t, "Bearer "+testToken, action.Header["Authorization"])
	assert.Zero(t, srv.BytesSent())
}

func TestFetch(t *testing.T) {
	d, srv := newTestDownloader(t)
	data := bytes.Repeat([]byte("0123456789"), 50_000)
	oid, err := srv.Put(testNamespace, data)
	require.NoError(t, err)

	var buf bytes.Buffer
	var fractions []float64
	n, err := d.Fetch(context.Background(), testNamespace, schema.BatchObject{OID: oid, Size: int64(len(data))}, token(), &buf, func(f float64) {
		fractions = append(fractions, f)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)
	assert.Equal(t, data, buf.Bytes())
	assert.Equal(t, int64(len(data)), srv.BytesSent())
	require.NotEmpty(t, fractions)
	assert.Equal(t, 1.0, fractions[len(fractions)-1])
}

func TestFetch_uploaded(t *testing.T) {
	u, srv := newTestUploader(t)
	d, err := lfs.NewDownloader(srv.URL)
	require.NoError(t, err)
	data := []byte("uploaded then fetched")

	ref, err := u.Push(context.Background(), schema.BytesFile("a.txt", data), token(), nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = d.Fetch(context.Background(), testNamespace, schema.BatchObject{OID: ref.ContentAddress, Size: ref.SizeBytes}, token(), &buf, nil)
	require.NoError(t, err)
	assert.Equal(t, data, buf.Bytes())
}

func TestResolve_errors(t *testing.T) {
	data := []byte("abc")
	tests := []struct {
		name   string
		object func(oid string) schema.BatchObject
		fail   int
		want   error
	}{
		{"Missing", func(string) schema.BatchObject {
			return schema.BatchObject{OID: oidOf([]byte("other")), Size: 5}
		}, 0, httpresponse.ErrNotFound},
		{"SizeMismatch", func(oid string) schema.BatchObject {
			return schema.BatchObject{OID: oid, Size: 4}
		}, 0, httpresponse.ErrNotFound},
		{"Denied", func(oid string) schema.BatchObject {
			return schema.BatchObject{OID: oid, Size: 3}
		}, http.StatusForbidden, httpresponse.ErrForbidden},
		{"BatchNotFound", func(oid string) schema.BatchObject {
			return schema.BatchObject{OID: oid, Size: 3}
		}, http.StatusNotFound, httpresponse.ErrNotFound},
		{"BatchMismatch", func(oid string) schema.BatchObject {
			return schema.BatchObject{OID: oid, Size: 3}
		}, http.StatusUnprocessableEntity, httpresponse.ErrNotFound},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			d, srv := newTestDownloader(t)
			oid, err := srv.Put(testNamespace, data)
			require.NoError(t, err)
			if test.fail != 0 {
				srv.Fail(lfstest.OpBatch, test.fail)
			}

			_, err = d.Resolve(context.Background(), testNamespace, test.object(oid), token())
			require.Error(t, err)
			assert.Equal(t, schema.KindStorageTransfer, schema.KindOf(err))
			assert.ErrorIs(t, err, test.want)
		})
	}
}

func TestResolve_invalid(t *testing.T) {
	d, srv := newTestDownloader(t)

	_, err := d.Resolve(context.Background(), testNamespace, schema.BatchObject{OID: "abc", Size: 3}, token())
	assert.ErrorIs(t, err, httpresponse.ErrBadRequest)

	_, err = d.Resolve(context.Background(), testNamespace, schema.BatchObject{OID: oidOf([]byte("abc")), Size: 3}, nil)
	assert.ErrorIs(t, err, schema.ErrStorageTransfer)

	_, err = d.Resolve(context.Background(), schema.Namespace{Bucket: "ckan"}, schema.BatchObject{OID: oidOf([]byte("abc")), Size: 3}, token())
	assert.Error(t, err)
	assert.Zero(t, srv.Batches())
}

func TestFetch_transferFailure(t *testing.T) {
	d, srv := newTestDownloader(t)
	oid, err := srv.Put(testNamespace, []byte("abc"))
	require.NoError(t, err)
	srv.Fail(lfstest.OpDownload, http.StatusInternalServerError)

	var buf bytes.Buffer
	_, err = d.Fetch(context.Background(), testNamespace, schema.BatchObject{OID: oid, Size: 3}, token(), &buf, nil)
	require.Error(t, err)
	assert.Equal(t, schema.KindStorageTransfer, schema.KindOf(err))
	assert.Zero(t, buf.Len())
}
