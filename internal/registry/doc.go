// Package registry is the read-only lookup surface for logical resources:
// descriptor resolution, pure URL templating against the provider table,
// and a startup integrity check over the whole model. Nothing at runtime
// mutates the registry; adding a resource or CDN provider is a manifest
// change.
package registry
