package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	// Packages
	jwt "github.com/golang-jwt/jwt/v5"
	datahub "github.com/mutablelogic/go-datahub"
	ckan "github.com/mutablelogic/go-datahub/pkg/ckan"
	schema "github.com/mutablelogic/go-datahub/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Provider requests scoped tokens from the authz_authorize action
type Provider struct {
	client *ckan.Client
	check  bool
}

type opt struct {
	check bool
}

// Opt is a functional option for New
type Opt func(*opt) error

var _ datahub.Authorizer = (*Provider)(nil)

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

// scopesClaim is the token claim which carries granted scopes, space separated
const scopesClaim = "scopes"

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func New(client *ckan.Client, opts ...Opt) (*Provider, error) {
	o := opt{check: true}
	for _, fn := range opts {
		if err := fn(&o); err != nil {
			return nil, err
		}
	}
	if client == nil {
		return nil, errors.New("authz: client is nil")
	}
	return &Provider{client: client, check: o.check}, nil
}

// WithoutScopeCheck accepts tokens whose granted scopes do not cover the
// requested scopes
func WithoutScopeCheck() Opt {
	return func(o *opt) error {
		o.check = false
		return nil
	}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Authorize returns a token for the scopes. Unless WithoutScopeCheck was
// set, every requested scope must be granted.
func (p *Provider) Authorize(ctx context.Context, scopes ...string) (*schema.AuthToken, error) {
	if len(scopes) == 0 {
		return nil, schema.AuthorizationError(ckan.ActionAuthorize, errors.New("no scopes requested"))
	}

	response, err := p.client.Authorize(ctx, scopes)
	if err != nil {
		return nil, schema.AuthorizationError(ckan.ActionAuthorize, err)
	} else if response.Token == "" {
		return nil, schema.AuthorizationError(ckan.ActionAuthorize, errors.New("empty token in response"))
	}

	token := &schema.AuthToken{
		Value:         response.Token,
		GrantedScopes: response.GrantedScopes,
	}
	if response.ExpiresAt != "" {
		if t, err := time.Parse(time.RFC3339, response.ExpiresAt); err == nil {
			token.ExpiresAt = t
		}
	}

	// Fall back to the claims when the response does not list the scopes
	if token.GrantedScopes == nil || token.ExpiresAt.IsZero() {
		if claims, err := parseClaims(response.Token); err == nil {
			if token.GrantedScopes == nil {
				token.GrantedScopes = claims.scopes
			}
			if token.ExpiresAt.IsZero() {
				token.ExpiresAt = claims.expires
			}
		}
	}

	if p.check {
		if missing := token.Missing(scopes...); len(missing) > 0 {
			return nil, schema.AuthorizationError(ckan.ActionAuthorize, fmt.Errorf("%w: %s", schema.ErrScopeNotGranted, strings.Join(missing, ", ")))
		}
	}

	return token, nil
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

type claims struct {
	scopes  []string
	expires time.Time
}

// parseClaims reads the token claims without verifying the signature, which
// is the storage server's concern
func parseClaims(value string) (claims, error) {
	var result claims
	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(value, mapClaims); err != nil {
		return result, err
	}
	switch v := mapClaims[scopesClaim].(type) {
	case string:
		result.scopes = strings.Fields(v)
	case []any:
		for _, scope := range v {
			if s, ok := scope.(string); ok {
				result.scopes = append(result.scopes, s)
			}
		}
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		result.expires = exp.Time
	}
	return result, nil
}
