// ABOUTME: Entry point for chembot
// ABOUTME: Builds the cobra command tree and shared config/logger helpers

package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/chembot/internal/config"
	"github.com/2389/chembot/internal/logging"
)

const banner = `
       _                    _           _
   ___| |__   ___ _ __ ___ | |__   ___ | |_
  / __| '_ \ / _ \ '_ ' _ \| '_ \ / _ \| __|
 | (__| | | |  __/ | | | | | |_) | (_) | |_
  \___|_| |_|\___|_| |_| |_|_.__/ \___/ \__|
`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// options are the flags shared by every subcommand.
type options struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "chembot",
		Short:         "Chemical compound lookup bot backed by PubChem",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/chembot/config.toml)")

	root.AddCommand(
		newServeCmd(opts),
		newChatCmd(opts),
		newLookupCmd(opts),
		newInitCmd(opts),
		newHealthCmd(opts),
	)
	return root
}

// loadConfig reads the config file. A missing file yields the defaults
// unless required is set.
func (o *options) loadConfig(required bool) (*config.Config, string, error) {
	path := config.Path(o.configPath)
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, path, nil
	}
	if !required && errors.Is(err, fs.ErrNotExist) {
		cfg, err := config.Parse("")
		return cfg, "", err
	}
	return nil, path, fmt.Errorf("loading config from %s: %w", path, err)
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	logger := logging.New(w, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)
	return logger
}

// quietLogger keeps logs off the terminal unless debugging, so they do not
// interleave with command output.
func quietLogger(cfg *config.Config) *slog.Logger {
	if cfg.Logging.Level == "debug" {
		return newLogger(os.Stderr, cfg)
	}
	return newLogger(io.Discard, cfg)
}

// bullet prints a green "▶" line, the startup info style.
func bullet(w io.Writer, format string, args ...any) {
	color.New(color.FgGreen).Fprint(w, "    ▶ ")
	fmt.Fprintf(w, format+"\n", args...)
}
