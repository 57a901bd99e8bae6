// ABOUTME: `chembot serve` runs the Matrix transport and the health server
// ABOUTME: Logs in, then runs until SIGINT/SIGTERM

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/chembot/internal/bot"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to Matrix and answer compound lookups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *options) error {
	out := cmd.OutOrStdout()
	color.New(color.FgCyan).Fprint(out, banner)

	cfg, path, err := opts.loadConfig(true)
	if err != nil {
		return err
	}
	if err := cfg.ValidateMatrix(); err != nil {
		return fmt.Errorf("invalid matrix config in %s: %w", path, err)
	}

	logger := newLogger(os.Stderr, cfg)

	bullet(out, "Config:     %s", path)
	bullet(out, "Homeserver: %s", cfg.Matrix.Homeserver)
	bullet(out, "Username:   %s", cfg.Matrix.Username)
	bullet(out, "Locale:     %s", cfg.Bot.Locale)
	if cfg.Session.Database != "" {
		bullet(out, "Database:   %s", cfg.Session.Database)
	}
	if cfg.Server.HTTPAddr != "" {
		bullet(out, "Health:     http://%s/health", cfg.Server.HTTPAddr)
	}
	fmt.Fprintln(out)

	// Setup graceful shutdown context first - all operations should respect it
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	b, err := bot.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating bot: %w", err)
	}
	defer b.Close()

	transport, err := b.NewMatrix()
	if err != nil {
		return fmt.Errorf("creating matrix transport: %w", err)
	}
	if err := transport.Login(ctx); err != nil {
		return fmt.Errorf("matrix login: %w", err)
	}
	b.AddTransport(transport)

	logger.Info("starting chembot", "user_id", transport.UserID())
	return b.Run(ctx)
}
