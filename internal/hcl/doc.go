// Package hcl loads registry manifests written in HCL and translates them
// into the format-agnostic config model. The embedded defaults.hcl carries
// the stock registry; user manifests overlay it.
package hcl
