// Package metadata saves resource records for uploaded objects and
// activates the owning dataset once it has a resource.
package metadata
