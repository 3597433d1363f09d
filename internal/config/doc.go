// Package config defines the format-agnostic model of the resource
// registry: providers, descriptors, fallback chains, groups and timeout
// tiers, along with the Loader interface for reading it from manifests.
//
// The `config.Model` is the single source of truth for the `registry`,
// `cdnmap` and `manager` packages. Concrete loader implementations, such
// as for HCL, are provided in separate packages.
package config
