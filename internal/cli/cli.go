package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/plugridgo/internal/app"
	"github.com/vk/plugridgo/internal/jobcache"
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

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("plugridgo", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
PlugridGo - job-scoped extension resolution for pluggable job processing.

Usage:
  plugridgo [options] [PLUGINS_DIR]

Arguments:
  PLUGINS_DIR
    Auto-deploy directory containing .hcl plugin manifests. Ignored when
    -bootstrap points at a configuration that defines auto_deploy_dir.

Options:
`)
		flagSet.PrintDefaults()
	}

	bootstrapFlag := flagSet.String("bootstrap", "", "Path to the bootstrap configuration file or directory.")
	pluginsFlag := flagSet.String("plugins", "", "Auto-deploy directory with plugin manifests.")
	watchFlag := flagSet.Bool("watch", false, "Keep watching the auto-deploy directory for manifest changes.")
	jobFlag := flagSet.String("job", "probe", "Name of the job to resolve extensions for.")
	cacheSizeFlag := flagSet.Int("cache-size", jobcache.DefaultSize, "Maximum number of cached job runtimes.")
	statusPortFlag := flagSet.Int("status-port", 0, "Port for the HTTP status server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	pluginsPath := *pluginsFlag
	if pluginsPath == "" && flagSet.NArg() > 0 {
		pluginsPath = flagSet.Arg(0)
	}

	if pluginsPath == "" && *bootstrapFlag == "" {
		slog.Debug("No configuration provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
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

	if *cacheSizeFlag <= 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid cache-size: must be positive"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		BootstrapPath: *bootstrapFlag,
		PluginsPath:   pluginsPath,
		Watch:         *watchFlag,
		LogFormat:     logFormat,
		LogLevel:      logLevel,
		CacheSize:     *cacheSizeFlag,
		StatusPort:    *statusPortFlag,
		JobName:       *jobFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.")
	return config, false, nil
}
