package rankcmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/marcrank/internal/rank"
)

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available extractors and normalizers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeList(cmd.OutOrStdout(), rank.NewRegistry())
		},
	}
}

func executeList(w io.Writer, reg *rank.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "EXTRACTOR\tEMITS\tDESCRIPTION")
	for _, e := range reg.Extractors() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Usage, e.Emits, e.Description)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "NORMALIZER\tACCEPTS\tDESCRIPTION")
	for _, n := range reg.Normalizers() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", n.Name, n.Accepts, n.Description)
	}

	return tw.Flush()
}
