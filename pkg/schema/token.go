package schema

import (
	"time"

	// Packages
	types "github.com/mutablelogic/go-server/pkg/types"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// AuthToken is a short-lived bearer token. It lives for a single workflow
// run and is never persisted.
type AuthToken struct {
	Value         string    `json:"-"`
	GrantedScopes []string  `json:"granted_scopes"`
	ExpiresAt     time.Time `json:"expires_at,omitzero"`
}

// AuthorizeRequest is the body of the authz_authorize action
type AuthorizeRequest struct {
	Scopes []string `json:"scopes"`
}

// AuthorizeResponse is the result of the authz_authorize action
type AuthorizeResponse struct {
	Token         string   `json:"token"`
	GrantedScopes []string `json:"granted_scopes,omitempty"`
	ExpiresAt     string   `json:"expires_at,omitempty"`
	UserID        string   `json:"user_id,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// HasScopes reports whether every required scope is covered by a granted
// scope
func (t *AuthToken) HasScopes(required ...string) bool {
	if t == nil {
		return false
	}
	for _, scope := range required {
		if !scopeGranted(t.GrantedScopes, scope) {
			return false
		}
	}
	return true
}

// Missing returns the required scopes which were not granted
func (t *AuthToken) Missing(required ...string) []string {
	var result []string
	for _, scope := range required {
		if t == nil || !scopeGranted(t.GrantedScopes, scope) {
			result = append(result, scope)
		}
	}
	return result
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (t AuthToken) String() string {
	return types.Stringify(t)
}
