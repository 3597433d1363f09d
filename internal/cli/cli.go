package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/assetgridgo/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("assetgridgo", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
AssetGridGo - CDN asset prefetcher with multi-tier fallback chains.

Usage:
  assetgridgo [options] [GROUP ...]

Arguments:
  GROUP
    One or more resource groups to load: core, code, math, table.

Options:
`)
		flagSet.PrintDefaults()
	}

	registryFlag := flagSet.String("registry", "", "Path to an .hcl manifest or directory overlaying the built-in registry.")
	rFlag := flagSet.String("r", "", "Path to an .hcl manifest or directory (shorthand).")
	assetsFlag := flagSet.String("assets-dir", "assets", "Directory backing local fallback sources.")
	languagesFlag := flagSet.String("languages", "", "Comma-separated language components to load with the code group.")
	statusPortFlag := flagSet.Int("status-port", 0, "Port for the HTTP status server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	groups := flagSet.Args()
	if len(groups) == 0 {
		flagSet.Usage()
		return nil, true, nil
	}

	registryPath := *registryFlag
	if registryPath == "" {
		registryPath = *rFlag
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	var languages []string
	if *languagesFlag != "" {
		for _, lang := range strings.Split(*languagesFlag, ",") {
			if lang = strings.TrimSpace(lang); lang != "" {
				languages = append(languages, lang)
			}
		}
	}

	config, err := app.NewConfig(app.Config{
		RegistryPath: registryPath,
		AssetsDir:    *assetsFlag,
		Groups:       groups,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
		StatusPort:   *statusPortFlag,
		Languages:    languages,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}
