package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/loykin/rnpdno/internal/catalog"
	"github.com/loykin/rnpdno/internal/scraper"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type fetchFunc func(ctx context.Context, s *scraper.Scraper, args []string) ([]catalog.Entry, error)

// catalogRun opens a session, fetches one catalog and prints it.
func catalogRun(fetch fetchFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		doc, err := loadDoc()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		s, err := openSession(ctx, doc)
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		entries, err := fetch(ctx, s, args)
		if err != nil {
			return err
		}
		return printEntries(cmd.OutOrStdout(), entries, viper.GetBool("json"))
	}
}

func printEntries(w io.Writer, entries []catalog.Entry, asJSON bool) error {
	if asJSON {
		if entries == nil {
			entries = []catalog.Entry{}
		}
		return writeJSON(w, entries)
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Name"})
	for _, e := range entries {
		t.AppendRow(table.Row{e.ID, e.Name})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d entries", len(entries))})
	t.Render()
	return nil
}

var statesCmd = &cobra.Command{
	Use:   "states",
	Short: "List the states catalog",
	Args:  cobra.NoArgs,
	RunE: catalogRun(func(ctx context.Context, s *scraper.Scraper, _ []string) ([]catalog.Entry, error) {
		return s.FetchStates(ctx)
	}),
}

var municipalitiesCmd = &cobra.Command{
	Use:   "municipalities <state-id>",
	Short: "List the municipalities of a state",
	Args:  cobra.ExactArgs(1),
	RunE: catalogRun(func(ctx context.Context, s *scraper.Scraper, args []string) ([]catalog.Entry, error) {
		return s.FetchMunicipalities(ctx, args[0])
	}),
}

var neighborhoodsCmd = &cobra.Command{
	Use:   "neighborhoods <state-id> <municipality-id>",
	Short: "List the neighborhoods of a municipality",
	Args:  cobra.ExactArgs(2),
	RunE: catalogRun(func(ctx context.Context, s *scraper.Scraper, args []string) ([]catalog.Entry, error) {
		return s.FetchNeighborhoods(ctx, args[0], args[1])
	}),
}
