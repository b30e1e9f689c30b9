package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/webterm/internal/infrastructure/server"
)

// NewServeCommand runs the broker and the interpreter in one process.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the broker with an in-process interpreter",
		Long: `Run the WebSocket broker and the interpreter in one process.

EXECUTOR_MODE=local calls the interpreter directly; relay sends every
command through an in-memory relay.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd, opts, server.RoleStandalone)
		},
	}
}

// NewBrokerCommand runs only the broker.
func NewBrokerCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "broker",
		Short: "Run the WebSocket broker",
		Long: `Run the WebSocket broker against a separate interpreter.

EXECUTOR_MODE=relay reaches it through Redis pub/sub at REDIS_URL;
http calls INTERPRETER_URL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd, opts, server.RoleBroker)
		},
	}
}

// NewInterpreterCommand runs only the interpreter service.
func NewInterpreterCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "interpreter",
		Short: "Run the command interpreter service",
		Long: `Run the interpreter HTTP API. With EXECUTOR_MODE=relay it also
consumes commands from RELAY_REQUEST_CHANNEL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd, opts, server.RoleInterpreter)
		},
	}
}

func runServer(cmd *cobra.Command, opts *RootOptions, role server.Role) error {
	cfg, err := loadConfig(opts, cmd.Flags().Changed("port"), role == server.RoleInterpreter)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg, role)
	if err != nil {
		return err
	}

	runErr := srv.Run(ctx)
	closeErr := srv.Close()
	if runErr != nil {
		return runErr
	}
	return closeErr
}
