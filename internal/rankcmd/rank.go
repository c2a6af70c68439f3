package rankcmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/marcrank/internal/catalog"
	"github.com/lehigh-university-libraries/marcrank/internal/marc"
	"github.com/lehigh-university-libraries/marcrank/internal/rank"
)

type rankOptions struct {
	configPath  string
	catalogURL  string
	catalogRate float64
	explain     bool
	show        bool
	asJSON      bool
}

// NewRankCmd creates the rank command
func NewRankCmd() *cobra.Command {
	var opts rankOptions

	cmd := &cobra.Command{
		Use:   "rank RECORD1 RECORD2",
		Short: "Decide which of two records is preferred",
		Long: `Rank a pair of records describing the same work.

Records are read from files (.json, .mrk, .txt, .mrc, .marc) or, with
--catalog-url, fetched from a VuFind catalog by record ID. A positive score
prefers record 1, a negative score prefers record 2 and 0 is a tie.`,
		Example: `  # Rank two local files
  marcrank rank --config configs/default.yaml a.mrk b.mrk

  # Show the per-feature breakdown
  marcrank rank --config configs/default.yaml --explain a.mrc b.mrc

  # Rank two catalog records by ID
  marcrank rank --catalog-url https://catalog.example.edu 991234 995678`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRank(cmd.Context(), cmd.OutOrStdout(), opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to ranking configuration (.yaml, .yml, .json); defaults to $"+ConfigEnv)
	cmd.Flags().StringVar(&opts.catalogURL, "catalog-url", "", "VuFind base URL; arguments are then record IDs")
	cmd.Flags().Float64Var(&opts.catalogRate, "catalog-rate", 0, "Maximum catalog requests per second (0 for unlimited)")
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "Print raw and normalized scores for every feature")
	cmd.Flags().BoolVar(&opts.show, "show", false, "Print both records in mnemonic form")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the full comparison as JSON")

	return cmd
}

func executeRank(ctx context.Context, w io.Writer, opts rankOptions, first, second string) error {
	ranker, _, err := LoadRanker(opts.configPath)
	if err != nil {
		return err
	}

	rec1, rec2, err := loadPair(ctx, opts, first, second)
	if err != nil {
		return err
	}

	if opts.show {
		fmt.Fprintf(w, "Record 1 (%s)\n%s\n", first, marc.FormatMnemonic(rec1))
		fmt.Fprintf(w, "Record 2 (%s)\n%s\n", second, marc.FormatMnemonic(rec2))
	}

	comparison, err := ranker.Compare(rec1, rec2)
	if err != nil {
		return fmt.Errorf("failed to rank records: %w", err)
	}

	if opts.asJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(comparison); err != nil {
			return fmt.Errorf("failed to encode comparison: %w", err)
		}
		return nil
	}

	if opts.explain {
		if err := printExplanation(w, comparison); err != nil {
			return err
		}
	}
	fmt.Fprintln(w, verdict(comparison))

	return nil
}

func loadPair(ctx context.Context, opts rankOptions, first, second string) (*marc.Record, *marc.Record, error) {
	if opts.catalogURL != "" {
		client := catalog.NewClient(opts.catalogURL, catalog.WithRateLimit(opts.catalogRate, 1))
		records, err := client.FetchRecords(ctx, first, second)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to fetch records: %w", err)
		}
		return records[0], records[1], nil
	}

	rec1, err := marc.ReadFile(first)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load record 1: %w", err)
	}
	rec2, err := marc.ReadFile(second)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load record 2: %w", err)
	}
	return rec1, rec2, nil
}

func verdict(c *rank.Comparison) string {
	switch c.Preferred() {
	case 1:
		return fmt.Sprintf("Record 1 is preferred (score %d)", c.Score)
	case 2:
		return fmt.Sprintf("Record 2 is preferred (score %d)", c.Score)
	}
	return fmt.Sprintf("Neither record is preferred (score %d)", c.Score)
}

func printExplanation(w io.Writer, c *rank.Comparison) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FEATURE\tRECORD 1\tRECORD 2\tNORMALIZED 1\tNORMALIZED 2")
	for i, label := range c.Labels {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", label, c.Raw1[i], c.Raw2[i], c.Normalized1[i], c.Normalized2[i])
	}
	fmt.Fprintf(tw, "TOTAL\t\t\t%d\t%d\n", c.Sum1, c.Sum2)
	return tw.Flush()
}
