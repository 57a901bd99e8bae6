// ABOUTME: `chembot lookup` resolves compounds once and prints the card
// ABOUTME: Two terms print a weight comparison instead

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/2389/chembot/internal/bot"
	"github.com/2389/chembot/internal/compound"
	"github.com/2389/chembot/internal/console"
	"github.com/2389/chembot/internal/format"
)

func newLookupCmd(opts *options) *cobra.Command {
	var similar bool

	cmd := &cobra.Command{
		Use:   "lookup <name|CID> [second]",
		Short: "Look up a compound, or compare the weights of two",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.loadConfig(false)
			if err != nil {
				return err
			}
			logger := quietLogger(cfg)

			b, err := bot.New(cfg, logger)
			if err != nil {
				return fmt.Errorf("creating bot: %w", err)
			}
			defer b.Close()

			return runLookup(cmd.Context(), cmd.OutOrStdout(), b.Lookup(), b.Formatter(), args, similar, cfg.PubChem.SimilarLimit)
		},
	}
	cmd.Flags().BoolVar(&similar, "similar", false, "also list structurally similar compounds")
	return cmd
}

func runLookup(ctx context.Context, w io.Writer, lookup compound.Service, f *format.Formatter, terms []string, similar bool, limit int) error {
	if ctx == nil {
		ctx = context.Background()
	}

	records := make([]compound.Record, 0, len(terms))
	for _, term := range terms {
		rec, err := resolve(ctx, lookup, term)
		if err != nil {
			console.Print(w, linksOnly(f.LookupFailed(term, err)), "")
			return fmt.Errorf("looking up %q: %w", term, err)
		}
		records = append(records, rec)
	}

	if len(records) == 2 {
		console.Print(w, linksOnly(f.Comparison(records[0], records[1])), "")
		return nil
	}

	rec := records[0]
	console.Print(w, linksOnly(f.Compound(rec)), "")
	if !similar {
		return nil
	}

	ids, err := lookup.Similar(ctx, rec.ID, limit)
	if err != nil {
		return fmt.Errorf("finding similar compounds: %w", err)
	}
	resp := linksOnly(f.Similar(rec.ID, ids))
	for i, id := range ids {
		resp.Text += fmt.Sprintf("\n%d. CID `%s`", i+1, id)
	}
	console.Print(w, resp, "")
	return nil
}

// linksOnly drops menu options, which mean nothing outside a conversation.
func linksOnly(resp format.Response) format.Response {
	var rows [][]format.Choice
	for _, row := range resp.Choices {
		var kept []format.Choice
		for _, c := range row {
			if c.IsLink() {
				kept = append(kept, c)
			}
		}
		if len(kept) > 0 {
			rows = append(rows, kept)
		}
	}
	resp.Choices = rows
	return resp
}

// resolve treats a numeric term as a CID.
func resolve(ctx context.Context, lookup compound.Service, term string) (compound.Record, error) {
	if id, err := compound.ParseCID(term); err == nil {
		return lookup.ResolveByID(ctx, id)
	}
	return lookup.ResolveByName(ctx, term)
}
