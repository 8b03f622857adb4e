package authz_test

import (
	"testing"

	// Packages
	authz "github.com/mutablelogic/go-datahub/pkg/authz"
	assert "github.com/stretchr/testify/assert"
)

func TestResourceScope(t *testing.T) {
	tests := []struct {
		namespace, dataset, resource, actions string
		want                                  string
		wantErr                               bool
	}{
		{"", "my-dataset", "", "", "obj:ckan/my-dataset/*:read,write", false},
		{"hub", "my-dataset", "r-1", "read", "obj:hub/my-dataset/r-1:read", false},
		{"ckan", "", "", "", "", true},
		{"ckan", "a/b", "", "", "", true},
		{"ckan", "ds", "r:1", "", "", true},
	}
	for _, test := range tests {
		got, err := authz.ResourceScope(test.namespace, test.dataset, test.resource, test.actions)
		if test.wantErr {
			assert.Error(t, err, test.dataset)
			continue
		}
		if assert.NoError(t, err) {
			assert.Equal(t, test.want, got)
		}
	}
}
