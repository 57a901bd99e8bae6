// ABOUTME: `chembot chat` runs the conversation in the terminal
// ABOUTME: Useful for trying the bot without a Matrix account

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/2389/chembot/internal/bot"
)

func newChatCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with the bot in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.loadConfig(false)
			if err != nil {
				return err
			}
			logger := quietLogger(cfg)

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			b, err := bot.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("creating bot: %w", err)
			}
			defer b.Close()

			b.AddTransport(b.NewConsole(cmd.InOrStdin(), cmd.OutOrStdout()))
			return b.Run(ctx)
		},
	}
}
