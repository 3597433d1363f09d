package app

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/assetgridgo/internal/ctxlog"
)

// Run loads every requested group and prints the per-resource report.
// Degraded resources are reported, not returned as errors: a missing
// third-party asset never fails the run.
func (a *App) Run(ctx context.Context, appConfig *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if appConfig.StatusPort > 0 {
		a.startStatusServer(appConfig.StatusPort)
	}

	for _, group := range appConfig.Groups {
		result, err := a.manager.LoadGroup(ctx, group)
		if err != nil {
			// Unknown group: warn (already logged) and keep going, the same
			// way a page feature tolerates the failure.
			continue
		}
		a.logger.Info("Group finished.", "group", group, "succeeded", result.Succeeded())

		if group == "code" && len(appConfig.Languages) > 0 {
			if err := a.prism.LoadLanguages(ctx, appConfig.Languages...); err != nil {
				a.logger.Warn("Language component loading failed.", "error", err)
			}
		}
	}

	a.printReport()
	a.logger.Debug("App.Run method finished.")
	return nil
}

func (a *App) printReport() {
	fmt.Fprintf(a.outW, "%-24s %-10s %-9s %-12s %s\n", "RESOURCE", "OUTCOME", "ATTEMPTS", "DURATION", "FINAL URL")
	for _, r := range a.manager.Reports() {
		url := r.FinalURL
		if r.Degraded {
			url = "(degraded)"
		}
		fmt.Fprintf(a.outW, "%-24s %-10s %-9d %-12s %s\n", r.LogicalName, r.Outcome, r.Attempts, r.Duration.Round(time.Millisecond), url)
	}
}
