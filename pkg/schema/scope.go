package schema

import (
	"slices"
	"strings"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Scope is an authorization scope of the form "entity:ref:actions", for
// example "obj:ckan/my-dataset/*:read,write"
type Scope struct {
	Entity  string
	Ref     string
	Actions []string
}

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const scopeWildcard = "*"

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// ParseScope splits a scope into its entity, ref and actions. The actions
// are sorted and deduplicated.
func ParseScope(value string) (Scope, bool) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Scope{}, false
	}
	scope := Scope{Entity: parts[0], Ref: parts[1]}
	for _, action := range strings.Split(parts[2], ",") {
		if action = strings.TrimSpace(action); action != "" {
			scope.Actions = append(scope.Actions, action)
		}
	}
	if len(scope.Actions) == 0 {
		return Scope{}, false
	}
	slices.Sort(scope.Actions)
	scope.Actions = slices.Compact(scope.Actions)
	return scope, true
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Covers reports whether the granted scope s satisfies the requested scope.
// The ref matches when equal, when s grants "*", or when s ends in "/*" and
// the requested ref is below it. Every requested action must be granted,
// in any order.
func (s Scope) Covers(requested Scope) bool {
	if s.Entity != requested.Entity || !s.coversRef(requested.Ref) {
		return false
	}
	if slices.Contains(s.Actions, scopeWildcard) {
		return true
	}
	for _, action := range requested.Actions {
		if !slices.Contains(s.Actions, action) {
			return false
		}
	}
	return true
}

func (s Scope) String() string {
	return s.Entity + ":" + s.Ref + ":" + strings.Join(s.Actions, ",")
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (s Scope) coversRef(ref string) bool {
	switch {
	case s.Ref == ref, s.Ref == scopeWildcard:
		return true
	case strings.HasSuffix(s.Ref, "/"+scopeWildcard):
		return strings.HasPrefix(ref, strings.TrimSuffix(s.Ref, scopeWildcard))
	default:
		return false
	}
}

// scopeGranted reports whether any granted scope satisfies the required one.
// Scopes which do not parse only match themselves.
func scopeGranted(granted []string, required string) bool {
	if slices.Contains(granted, required) {
		return true
	}
	want, ok := ParseScope(required)
	if !ok {
		return false
	}
	for _, value := range granted {
		if have, ok := ParseScope(value); ok && have.Covers(want) {
			return true
		}
	}
	return false
}
