package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Project-Sylos/Arbor/internal/records"
	"github.com/Project-Sylos/Arbor/internal/tree"
	"github.com/Project-Sylos/Arbor/internal/types"
)

// NewFlattenCmd prints the flattened tree of a record file
func NewFlattenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "flatten FILE",
		Short: "Print the flattened tree of a record file",
		Long: `Print the records of FILE in tree order with their level and position.

FILE holds a JSON array, JSON lines or a YAML list of records. Each record
needs a numeric "id"; the parent and weight fields are named by
--parent-key and --weight-key.

Examples:
  arbor flatten agenda.json
  arbor flatten --parent-key group --weight-key rank motions.yaml
  arbor flatten -o json agenda.jsonl`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := loadRecords(a, args[0])
			if err != nil {
				return err
			}
			flat, err := tree.MakeFlatTree(types.Items(items), a.options())
			if err != nil {
				return fmt.Errorf("failed to flatten %s: %w", args[0], err)
			}
			if a.output == OutputJSON {
				if flat == nil {
					flat = []*tree.FlatNode{}
				}
				return writeJSON(cmd.OutOrStdout(), flat)
			}
			return renderFlat(cmd.OutOrStdout(), flat)
		},
	}
}

// NewTreeCmd prints the nested tree of a record file
func NewTreeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tree FILE",
		Short: "Print the nested tree of a record file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := loadRecords(a, args[0])
			if err != nil {
				return err
			}
			nodes, err := tree.MakeSortedTree(types.Items(items), a.options())
			if err != nil {
				return fmt.Errorf("failed to build tree of %s: %w", args[0], err)
			}
			if a.output == OutputJSON {
				if nodes == nil {
					nodes = []*tree.Node{}
				}
				return writeJSON(cmd.OutOrStdout(), nodes)
			}
			return renderTree(cmd.OutOrStdout(), nodes)
		},
	}
}

// NewAnnotateCmd computes level and tree_weight for a record file
func NewAnnotateCmd(a *app) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "annotate FILE",
		Short: "Compute level and tree_weight for every record",
		Long: `Compute the pre-order level and tree_weight of every record of FILE.

With --write the annotated records are written back to FILE in its own
format, under an advisory lock on FILE.lock.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			items, err := loadRecords(a, path)
			if err != nil {
				return err
			}
			opts := a.options()

			if write {
				for _, item := range items {
					delete(item.Fields, types.FieldLevel)
					delete(item.Fields, types.FieldTreeWeight)
				}
				if err := tree.InjectFlatNodeInformation(types.Items(items), opts); err != nil {
					return fmt.Errorf("failed to annotate %s: %w", path, err)
				}
				if err := records.SaveFile(path, items); err != nil {
					return err
				}
				a.logger.WithFields(logrus.Fields{
					"file":    path,
					"records": len(items),
				}).Info("Wrote annotations")
				if a.output == OutputJSON {
					return writeJSON(cmd.OutOrStdout(), items)
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Annotated %d records in %s\n", len(items), path)
				return err
			}

			annotations, err := tree.Annotate(types.Items(items), opts)
			if err != nil {
				return fmt.Errorf("failed to annotate %s: %w", path, err)
			}
			if a.output == OutputJSON {
				if annotations == nil {
					annotations = []tree.Annotation{}
				}
				return writeJSON(cmd.OutOrStdout(), annotations)
			}
			titles := make(map[int]string, len(items))
			for _, item := range items {
				titles[item.ID] = item.Title()
			}
			return renderAnnotations(cmd.OutOrStdout(), annotations, titles)
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "write level and tree_weight back to FILE")
	return cmd
}

// loadRecords reads a record file and rejects parent cycles up front
func loadRecords(a *app, path string) ([]*types.Item, error) {
	items, err := records.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := tree.CheckHierarchy(types.Items(items), a.options().ParentKey); err != nil {
		return nil, fmt.Errorf("invalid hierarchy in %s: %w", path, err)
	}
	a.logger.WithFields(logrus.Fields{
		"file":    path,
		"records": len(items),
	}).Debug("Loaded records")
	return items, nil
}
