package rankcmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lehigh-university-libraries/marcrank/internal/dataset"
	"github.com/lehigh-university-libraries/marcrank/internal/rank"
	"github.com/lehigh-university-libraries/marcrank/internal/results"
)

type batchOptions struct {
	configPath  string
	pairsPath   string
	outputJSON  string
	outputYAML  string
	sampleSize  int
	concurrency int
}

// NewBatchCmd creates the batch command
func NewBatchCmd() *cobra.Command {
	var opts batchOptions

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Rank every record pair in a dataset",
		Long: `Rank record pairs read from a JSONL or Parquet dataset.

Each pair holds "id", "record1", "record2" and, optionally, "expected" (1 or 2)
naming the record a cataloger kept. Labeled pairs are scored for agreement.`,
		Example: `  # Rank the first 100 pairs with 8 workers
  marcrank batch --config configs/default.yaml --pairs pairs.jsonl --sample 100 --concurrency 8

  # Rank a Parquet dataset and keep a YAML report
  marcrank batch --config configs/default.yaml --pairs pairs.parquet --output-yaml report.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.pairsPath == "" {
				return fmt.Errorf("--pairs is required")
			}
			if opts.concurrency < 1 {
				return fmt.Errorf("--concurrency must be at least 1")
			}
			return executeBatch(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Path to ranking configuration; defaults to $"+ConfigEnv)
	cmd.Flags().StringVar(&opts.pairsPath, "pairs", "", "Path to JSONL or Parquet pair dataset (required)")
	cmd.Flags().StringVar(&opts.outputJSON, "output-json", "", "Path to output JSON results file")
	cmd.Flags().StringVar(&opts.outputYAML, "output-yaml", "", "Path to output YAML report file")
	cmd.Flags().IntVar(&opts.sampleSize, "sample", 0, "Number of pairs to rank (0 for all)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 4, "Number of pairs ranked in parallel")

	_ = cmd.MarkFlagRequired("pairs")

	return cmd
}

func executeBatch(ctx context.Context, w io.Writer, opts batchOptions) error {
	ranker, configPath, err := LoadRanker(opts.configPath)
	if err != nil {
		return err
	}

	slog.Info("Loading pairs", "path", opts.pairsPath, "sample", opts.sampleSize)
	pairs, err := dataset.NewLoader(opts.pairsPath).LoadSample(opts.sampleSize)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	slog.Info("Pairs loaded", "pairs", len(pairs))

	ranked := make([]results.Result, len(pairs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.concurrency)
	for i, pair := range pairs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ranked[i] = rankPair(ranker, pair)
			if (i+1)%1000 == 0 {
				slog.Info("Ranking pairs", "progress", fmt.Sprintf("%d/%d", i+1, len(pairs)))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("batch ranking interrupted: %w", err)
	}

	summary := results.Summarize(ranked, configPath, opts.pairsPath, ranker.Labels())
	summary.PrintSummary(w)

	if opts.outputJSON != "" {
		if err := summary.SaveToJSON(opts.outputJSON); err != nil {
			return fmt.Errorf("failed to save results: %w", err)
		}
		fmt.Fprintf(w, "\nResults saved to: %s\n", opts.outputJSON)
	}
	if opts.outputYAML != "" {
		if err := summary.SaveToYAML(opts.outputYAML); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		fmt.Fprintf(w, "Report saved to: %s\n", opts.outputYAML)
	}

	return nil
}

// rankPair ranks one pair; a ranking failure is recorded on the result
func rankPair(ranker *rank.Ranker, pair dataset.Pair) results.Result {
	start := time.Now()
	result := results.Result{
		ID:       pair.ID,
		Expected: pair.Expected,
	}

	comparison, err := ranker.Compare(&pair.Record1, &pair.Record2)
	result.ProcessingTime = time.Since(start)
	if err != nil {
		slog.Debug("Failed to rank pair", "id", pair.ID, "err", err)
		result.Error = err.Error()
		return result
	}

	result.Comparison = comparison
	result.Score = comparison.Score
	result.Preferred = comparison.Preferred()
	return result
}
