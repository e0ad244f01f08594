package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"csn-resolver/internal/cli"
	"csn-resolver/internal/ctxlog"
)

var (
	// Global state set during PersistentPreRunE
	cfg        *cli.Config
	configPath string
	logger     *slog.Logger

	// Persistent flags
	cfgFile string
	verbose int
	quiet   bool
	format  string
)

var rootCmd = &cobra.Command{
	Use:   "csn-resolver",
	Short: "Association rewriting and path checks for CSN models",
	Long: `csn-resolver - association rewriting and path checks for CSN models

csn-resolver rewrites the on-conditions and foreign keys of associations
projected into views and reports paths in on-conditions, stored calculated
elements and queries that can't be expressed as joins.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "version" {
			return nil
		}

		var err error

		cfg, configPath, err = cli.LoadConfig(cfgFile)
		if err != nil {
			return cli.ConfigError("loading configuration", err)
		}

		if format != "" {
			cfg.Output.Format = format
			if err := cfg.Validate(); err != nil {
				return cli.ConfigError("invalid --format", err)
			}
		}

		logger, err = cli.NewLogger(os.Stderr, cfg.Log, verbose, quiet)
		if err != nil {
			return cli.ConfigError("configuring logger", err)
		}

		cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))

		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Command group IDs
const (
	groupModel   = "model"
	groupUtility = "utility"
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: auto-discover csn-resolver.yaml)")
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase verbosity (can be repeated)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "o", "", "output format: text, yaml or json")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupModel, Title: "Model:"},
		&cobra.Group{ID: groupUtility, Title: "Utility:"},
	)

	checkCmd.GroupID = groupModel
	rewriteCmd.GroupID = groupModel
	typeCmd.GroupID = groupModel
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(rewriteCmd)
	rootCmd.AddCommand(typeCmd)

	configCmd.GroupID = groupUtility
	versionCmd.GroupID = groupUtility
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		cli.ExitWithError(err)
	}
}

// resolveBool returns true if any of the provided values is true.
// Used for boolean flags where any true value should win.
func resolveBool(values ...bool) bool {
	for _, v := range values {
		if v {
			return true
		}
	}

	return false
}
