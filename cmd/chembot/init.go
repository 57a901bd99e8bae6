// ABOUTME: `chembot init` writes a config file from interactive answers
// ABOUTME: Prompts for Matrix credentials, locale, storage and health address

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/2389/chembot/internal/config"
)

func newInitCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a config file interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd.InOrStdin(), cmd.OutOrStdout(), config.Path(opts.configPath))
		},
	}
}

func runInit(in io.Reader, out io.Writer, configPath string) error {
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	cyan.Fprint(out, banner)
	fmt.Fprintln(out, "    Interactive Setup")
	fmt.Fprintln(out, "    -----------------")
	fmt.Fprintln(out)

	reader := bufio.NewReader(in)
	ask := func(question, def string) string {
		green.Fprint(out, "    ▶ ")
		if def != "" {
			fmt.Fprintf(out, "%s [%s]: ", question, def)
		} else {
			fmt.Fprintf(out, "%s: ", question)
		}
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(answer)
		if answer == "" {
			return def
		}
		return answer
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		yellow.Fprintf(out, "    Config already exists at %s\n", configPath)
		fmt.Fprint(out, "    Overwrite? [y/N]: ")
		answer, _ := reader.ReadString('\n')
		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Fprintln(out, "    Aborted.")
			return nil
		}
		fmt.Fprintln(out)
	}

	answers := config.InitAnswers{
		Homeserver: ask("Matrix homeserver URL (\"none\" for terminal chat only)", "https://matrix.org"),
	}
	if answers.Homeserver == "none" {
		answers.Homeserver = ""
	} else {
		answers.Username = ask("Matrix username", "")
		answers.Password = ask("Matrix password", "")
	}

	answers.Locale = ask("Language ("+strings.Join(config.Locales, ", ")+")", "en")
	if !slices.Contains(config.Locales, answers.Locale) {
		return fmt.Errorf("unsupported language %q", answers.Locale)
	}

	answers.Database = ask("History database (\"none\" for memory only)", filepath.Join(config.DataPath(), "chembot.db"))
	if answers.Database == "none" {
		answers.Database = ""
	}
	answers.HTTPAddr = ask("Health server address (\"none\" to disable)", "127.0.0.1:8080")
	if answers.HTTPAddr == "none" {
		answers.HTTPAddr = ""
	}

	// Ensure config and data directories exist
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if answers.Database != "" {
		if err := os.MkdirAll(filepath.Dir(answers.Database), 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	// Write config file
	if err := os.WriteFile(configPath, []byte(config.Render(answers)), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Fprintln(out)
	green.Fprintf(out, "    ✓ Config written to %s\n", configPath)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "    Next steps:")
	if answers.Homeserver != "" {
		fmt.Fprintln(out, "    1. Run: chembot serve")
	} else {
		fmt.Fprintln(out, "    1. Run: chembot chat")
	}
	fmt.Fprintln(out)

	return nil
}
