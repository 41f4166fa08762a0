// Package registry maps queue names to handler instances and their static
// metadata. Handlers are registered once at process startup; after that the
// registry is read-only.
package registry
