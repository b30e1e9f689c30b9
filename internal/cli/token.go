package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/webterm/internal/auth"
)

// TokenOptions holds flags for the token command.
type TokenOptions struct {
	UserID    string
	Username  string
	Email     string
	SessionID string
	Anonymous bool
	TTL       time.Duration
	JSON      bool
}

// NewTokenCommand creates the token command.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokenOptions{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed token for local testing",
		Long: `Issue an HS256 token signed with JWT_SECRET.

The token is accepted by a broker running with the same secret in either
auth mode.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runToken(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.UserID, "user", "", "user id (required)")
	cmd.Flags().StringVar(&opts.Username, "name", "", "display name")
	cmd.Flags().StringVar(&opts.Email, "email", "", "email")
	cmd.Flags().StringVar(&opts.SessionID, "session", "", "session id (generated by the broker when empty)")
	cmd.Flags().BoolVar(&opts.Anonymous, "anonymous", false, "mark the identity anonymous")
	cmd.Flags().DurationVar(&opts.TTL, "ttl", 24*time.Hour, "token lifetime")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print token and expiry as JSON")

	return cmd
}

func runToken(cmd *cobra.Command, rootOpts *RootOptions, opts *TokenOptions) error {
	if opts.UserID == "" {
		return errors.New("--user is required")
	}
	if opts.TTL <= 0 {
		return errors.New("--ttl must be positive")
	}

	cfg, err := loadConfig(rootOpts, false, false)
	if err != nil {
		return err
	}

	token, expires, err := auth.NewJWTVerifier(cfg.Auth.JWTSecret).Issue(auth.Identity{
		UserID:      opts.UserID,
		Username:    opts.Username,
		Email:       opts.Email,
		SessionID:   opts.SessionID,
		IsAnonymous: opts.Anonymous,
	}, opts.TTL)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !opts.JSON {
		_, err = fmt.Fprintln(out, token)
		return err
	}

	data, err := sonic.Marshal(map[string]string{
		"token":     token,
		"expiresAt": expires.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
