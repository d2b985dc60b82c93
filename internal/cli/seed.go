package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Project-Sylos/Arbor/internal/generator"
	"github.com/Project-Sylos/Arbor/internal/records"
)

// NewSeedCmd generates a random agenda-like record set
func NewSeedCmd(a *app) *cobra.Command {
	var (
		out     string
		seed    int64
		roots   int
		depth   int
		firstID int
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate a random record hierarchy",
		Long: `Generate a random hierarchy of records using the seed settings of the
config file. The same seed always produces the same records.

Examples:
  arbor seed                       # print to stdout as JSON
  arbor seed --out demo.yaml       # write a YAML record file
  arbor seed --seed 7 --roots 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.Seed
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}
			if cmd.Flags().Changed("roots") {
				cfg.Roots = roots
			}
			if cmd.Flags().Changed("depth") {
				cfg.MaxDepth = depth
			}

			items, err := generator.Generate(cfg, a.cfg.KeysFor(a.v.GetString("collection")), firstID)
			if err != nil {
				return err
			}

			if out == "" {
				return writeJSON(cmd.OutOrStdout(), items)
			}
			if err := records.SaveFile(out, items); err != nil {
				return err
			}
			a.logger.WithFields(logrus.Fields{
				"file":    out,
				"records": len(items),
				"seed":    cfg.Seed,
			}).Info("Generated records")
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d records to %s\n", len(items), out)
			return err
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "write records to this file (.json, .jsonl or .yaml)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (default from config)")
	cmd.Flags().IntVar(&roots, "roots", 0, "number of root records (default from config)")
	cmd.Flags().IntVar(&depth, "depth", 0, "maximum depth (default from config)")
	cmd.Flags().IntVar(&firstID, "first-id", 1, "id of the first generated record")
	return cmd
}
