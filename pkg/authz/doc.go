// Package authz requests short-lived storage tokens from a CKAN site in
// exchange for capability scopes.
//
// Scopes name an entity type, an entity and a list of actions:
//
//	obj:ckan/my-dataset/*:read,write
package authz
