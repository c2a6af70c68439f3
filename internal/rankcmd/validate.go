package rankcmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lehigh-university-libraries/marcrank/internal/config"
	"github.com/lehigh-university-libraries/marcrank/internal/rank"
)

// NewValidateCmd creates the validate command
func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [CONFIG...]",
		Short: "Check ranking configurations",
		Long: `Validate ranking configurations and resolve every feature against the
built-in extractors and normalizers. With no arguments the configuration
named by $` + ConfigEnv + ` is checked.`,
		Example: `  marcrank validate configs/default.yaml configs/strict.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				path, err := resolveConfigPath("")
				if err != nil {
					return err
				}
				args = []string{path}
			}
			return executeValidate(cmd.OutOrStdout(), args)
		},
	}

	return cmd
}

func executeValidate(w io.Writer, paths []string) error {
	reg := rank.NewRegistry()

	var errs []error
	for _, path := range paths {
		cfg, err := config.Load(path)
		if err == nil {
			_, err = rank.New(cfg, reg)
		}
		if err != nil {
			fmt.Fprintf(w, "FAIL %s\n  %v\n", path, err)
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		fmt.Fprintf(w, "OK   %s (%d features)\n", path, len(cfg.Features))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d of %d configurations are invalid: %w", len(errs), len(paths), errors.Join(errs...))
	}
	return nil
}
