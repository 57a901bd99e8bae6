// ABOUTME: `chembot health` probes a running bot's readiness endpoint
// ABOUTME: Exits non-zero unless /health/ready answers 200

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newHealthCmd(opts *options) *cobra.Command {
	var addr string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check whether a running bot is ready",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				cfg, _, err := opts.loadConfig(false)
				if err != nil {
					return err
				}
				addr = cfg.Server.HTTPAddr
			}
			if addr == "" {
				return errors.New("no health server address: set server.http_addr or pass --addr")
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			status, err := probe(ctx, addr)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), status)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "health server address (default server.http_addr)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "request timeout")
	return cmd
}

// probe calls /health/ready on addr and returns the response body.
func probe(ctx context.Context, addr string) (string, error) {
	base := addr
	if strings.HasPrefix(base, ":") {
		base = "127.0.0.1" + base
	}
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(base, "/")+"/health/ready", nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("contacting %s: %w", addr, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("not ready (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return strings.TrimSpace(string(body)), nil
}
