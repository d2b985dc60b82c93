// Package cli implements the arbor command line: tree builds over record
// files, a file watcher, demo data generation and the HTTP server.
package cli

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Project-Sylos/Arbor/internal/config"
	"github.com/Project-Sylos/Arbor/internal/logging"
	"github.com/Project-Sylos/Arbor/internal/tree"
	"github.com/Project-Sylos/Arbor/internal/types"
)

// Output formats
const (
	OutputText = "text"
	OutputJSON = "json"
)

// app is the state shared by all commands, filled in before any subcommand runs
type app struct {
	v      *viper.Viper
	cfg    *types.Config
	logger *logrus.Logger
	output string
}

// options returns the tree options for the --collection flag
func (a *app) options() tree.Options {
	return tree.OptionsFromKeys(a.cfg.KeysFor(a.v.GetString("collection")))
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the arbor command tree. Flags are layered over ARBOR_*
// environment variables, which are layered over the config file.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:          "arbor",
		Short:        "Arrange flat records into ordered trees",
		Long:         "Arbor turns flat records with parent and weight fields into ordered trees, flat outlines and annotations.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (JSON or YAML)")
	flags.String("weight-key", "", "record field ordering siblings (default \"weight\")")
	flags.String("parent-key", "", "record field naming the parent (default \"parent_id\")")
	flags.String("collection", "", "collection whose configured keys apply")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.StringP("output", "o", OutputText, "output format: text or json")

	bind := map[string]string{
		"config":          "config",
		"tree.weight_key": "weight-key",
		"tree.parent_key": "parent-key",
		"collection":      "collection",
		"log.level":       "log-level",
		"output":          "output",
	}
	for key, flag := range bind {
		cobra.CheckErr(a.v.BindPFlag(key, flags.Lookup(flag)))
	}

	a.v.SetEnvPrefix("ARBOR")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	a.v.AutomaticEnv()

	rootCmd.AddCommand(
		NewFlattenCmd(a),
		NewTreeCmd(a),
		NewAnnotateCmd(a),
		NewWatchCmd(a),
		NewSeedCmd(a),
		NewServeCmd(a),
	)
	return rootCmd
}

// init loads the configuration and builds the logger
func (a *app) init(cmd *cobra.Command) error {
	var cfg *types.Config
	if path := a.v.GetString("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		def := config.DefaultConfig()
		def.Log.Level = "warn"
		cfg = &def
	}

	overrideString(a.v, "tree.weight_key", &cfg.Tree.WeightKey)
	overrideString(a.v, "tree.parent_key", &cfg.Tree.ParentKey)
	overrideString(a.v, "log.level", &cfg.Log.Level)
	overrideString(a.v, "log.format", &cfg.Log.Format)
	overrideString(a.v, "store.driver", &cfg.Store.Driver)
	overrideString(a.v, "store.db_path", &cfg.Store.DBPath)
	overrideString(a.v, "api.host", &cfg.API.Host)
	if port := a.v.GetInt("api.port"); port != 0 {
		cfg.API.Port = port
	}

	if err := config.Normalize(cfg); err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	output := a.v.GetString("output")
	if output != OutputText && output != OutputJSON {
		return fmt.Errorf("output must be %s or %s, got %q", OutputText, OutputJSON, output)
	}

	logger, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.output = output
	return nil
}

func overrideString(v *viper.Viper, key string, dst *string) {
	if s := v.GetString(key); s != "" {
		*dst = s
	}
}
