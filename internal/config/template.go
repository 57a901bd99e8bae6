// ABOUTME: Commented config file generation for `chembot init`
// ABOUTME: Renders answers into TOML that Load accepts

package config

import (
	"fmt"
	"strconv"
	"strings"
)

// InitAnswers are the values gathered by the interactive setup.
type InitAnswers struct {
	Homeserver string
	Username   string
	Password   string
	Locale     string
	Database   string
	HTTPAddr   string
}

// Render produces a commented config file for a.
func Render(a InitAnswers) string {
	d := Default()
	locale := a.Locale
	if locale == "" {
		locale = d.Bot.Locale
	}

	var b strings.Builder
	b.WriteString("# chembot configuration\n# Generated by chembot init\n\n")

	b.WriteString("[matrix]\n")
	if a.Homeserver == "" {
		b.WriteString("# Set a homeserver to enable `chembot serve`\n")
	}
	fmt.Fprintf(&b, "homeserver = %s\n", strconv.Quote(a.Homeserver))
	fmt.Fprintf(&b, "username = %s\n", strconv.Quote(a.Username))
	fmt.Fprintf(&b, "password = %s\n", strconv.Quote(a.Password))
	b.WriteString("# Only respond in these rooms (empty = all joined rooms)\n")
	b.WriteString("allowed_rooms = []\n")
	b.WriteString("# Options are picked with <prefix><n>, raw actions with <prefix><action>\n")
	fmt.Fprintf(&b, "command_prefix = %s\n", strconv.Quote(d.Matrix.CommandPrefix))
	b.WriteString("typing_indicator = true\n\n")

	b.WriteString("[pubchem]\n")
	fmt.Fprintf(&b, "timeout = %s\n", strconv.Quote(d.PubChem.TimeoutRaw))
	fmt.Fprintf(&b, "requests_per_second = %.1f\n", d.PubChem.RequestsPerSecond)
	fmt.Fprintf(&b, "similarity_threshold = %d\n", d.PubChem.SimilarityThreshold)
	fmt.Fprintf(&b, "similar_limit = %d\n\n", d.PubChem.SimilarLimit)

	b.WriteString("[cache]\n")
	b.WriteString("enabled = true\n")
	fmt.Fprintf(&b, "ttl = %s\n\n", strconv.Quote(d.Cache.TTLRaw))

	b.WriteString("[session]\n")
	b.WriteString("# SQLite file for history and favorites (empty = memory only)\n")
	fmt.Fprintf(&b, "database = %s\n", strconv.Quote(a.Database))
	b.WriteString("# Entries kept per user (0 = unbounded)\n")
	b.WriteString("history_retention = 0\n")
	fmt.Fprintf(&b, "history_display = %d\n\n", d.Session.HistoryDisplay)

	b.WriteString("[bot]\n")
	fmt.Fprintf(&b, "# One of: %s\n", strings.Join(Locales, ", "))
	fmt.Fprintf(&b, "locale = %s\n", strconv.Quote(locale))
	fmt.Fprintf(&b, "choice_ttl = %s\n\n", strconv.Quote(d.Bot.ChoiceTTLRaw))

	b.WriteString("[server]\n")
	b.WriteString("# Health server address (empty = disabled)\n")
	fmt.Fprintf(&b, "http_addr = %s\n\n", strconv.Quote(a.HTTPAddr))

	b.WriteString("[logging]\n")
	fmt.Fprintf(&b, "level = %s\n", strconv.Quote(d.Logging.Level))
	fmt.Fprintf(&b, "format = %s\n", strconv.Quote(d.Logging.Format))

	return b.String()
}
