package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/assetgridgo/internal/config"
	"github.com/vk/assetgridgo/internal/ctxlog"
)

// ValidateRegistry performs a strict integrity check of the loaded model:
// every source references a known provider and resolves to a URL, every
// strategy has the sources it needs, and every group member exists. It runs
// once at startup; a failure here is a configuration mistake, not a runtime
// condition.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for name, desc := range r.model.Resources {
		for i, src := range desc.Sources() {
			if _, ok := r.model.Providers[src.Provider]; !ok {
				errs = append(errs, fmt.Sprintf("resource %q: source %d references unknown provider %q", name, i, src.Provider))
				continue
			}
			if r.BuildURL(src) == "" {
				errs = append(errs, fmt.Sprintf("resource %q: source %d (provider %q) does not resolve to a URL", name, i, src.Provider))
			}
		}

		switch desc.Strategy {
		case config.LocalOnly:
			if r.LocalURL(desc) == "" {
				errs = append(errs, fmt.Sprintf("resource %q: strategy local_only but no local source declared", name))
			}
		case config.CDNOnly:
			if r.LocalURL(desc) != "" {
				logger.Warn("Resource declares a local source its strategy will never use.",
					"resource", name, "strategy", desc.Strategy.String())
			}
		}

		if !desc.Primary.IsLocal() && desc.Primary.Version == "" && r.model.Versions[desc.Primary.Package] == "" {
			errs = append(errs, fmt.Sprintf("resource %q: package %q has no entry in the version table", name, desc.Primary.Package))
		}
	}

	for groupName, group := range r.model.Groups {
		for _, member := range group.Resources {
			if _, ok := r.model.Resources[member]; !ok {
				errs = append(errs, fmt.Sprintf("group %q: references unknown resource %q", groupName, member))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	logger.Debug("Registry validation passed.", "resources", len(r.model.Resources), "groups", len(r.model.Groups))
	return nil
}
