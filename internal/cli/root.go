package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/webterm/internal/infrastructure/config"
)

// RootOptions holds global flags for all commands. Set flags override the
// environment.
type RootOptions struct {
	Port     string
	Dev      bool
	LogLevel string
}

// NewRootCommand creates the root command for the webterm CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "webterm",
		Short: "webterm - a terminal in the browser",
		Long: `A browser terminal backed by a per-user virtual filesystem.

The broker accepts authenticated WebSocket connections and forwards each
command to the interpreter, which runs it against the user's documents.
Both halves can run in one process (serve) or separately.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.Port, "port", "p", "", "listen port (overrides PORT or INTERPRETER_PORT)")
	cmd.PersistentFlags().BoolVar(&opts.Dev, "dev", false, "development logging")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewBrokerCommand(opts))
	cmd.AddCommand(NewInterpreterCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))

	return cmd
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(opts *RootOptions, portSet, interpreter bool) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if portSet {
		if interpreter {
			cfg.Interpreter.Port = opts.Port
		} else {
			cfg.Server.Port = opts.Port
		}
	}
	if opts.Dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}
	if opts.LogLevel != "" {
		switch opts.LogLevel {
		case "debug", "info", "warn", "error":
			cfg.Logging.Level = opts.LogLevel
		default:
			return nil, fmt.Errorf("invalid log level %q", opts.LogLevel)
		}
	}
	return cfg, nil
}
