package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"csn-resolver/internal/cli"
	"csn-resolver/internal/diagnostic"
	"csn-resolver/internal/engine"
	"csn-resolver/internal/model"
)

var (
	checkExpandTuples   bool
	checkSkipQueries    bool
	checkFailOnWarnings bool
	checkInfos          bool
)

var checkCmd = &cobra.Command{
	Use:   "check [model]",
	Short: "Rewrite associations and check paths",
	Long: `Run the resolution pass over a model and print its diagnostics.

The command exits with code 4 if the model has errors, or warnings with
--fail-on-warnings.`,
	Example: `  # Check a model file
  csn-resolver check models/shop.yaml

  # Check the configured model and print JSON
  csn-resolver check -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, m, err := loadModel(args)
		if err != nil {
			return err
		}

		diags := &diagnostic.Diagnostics{}

		res, err := engine.New(m, diags, checkOptions()).Run(cmd.Context())
		if err != nil {
			return cli.GeneralError("running pass", err)
		}

		report := newCheckReport(path, res, diags, resolveBool(checkInfos, cfg.Output.Infos))

		if !quiet || !res.Passed {
			if err := render(cmd.OutOrStdout(), cfg.Output.Format, report, report.writeText); err != nil {
				return cli.GeneralError("writing report", err)
			}
		}

		if !res.Passed {
			return cli.DiagnosticsError(fmt.Sprintf("%s has %d error(s)", path, res.Errors), nil)
		}

		return nil
	},
}

func init() {
	addPassFlags(checkCmd)
	checkCmd.Flags().BoolVar(&checkInfos, "infos", false, "include info diagnostics")
}

func addPassFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&checkExpandTuples, "expand-tuples", false, "replace tuple comparisons in on-conditions by their leaves")
	cmd.Flags().BoolVar(&checkSkipQueries, "skip-queries", false, "don't validate view queries")
	cmd.Flags().BoolVar(&checkFailOnWarnings, "fail-on-warnings", false, "treat warnings as errors")
}

// checkOptions merges the pass flags into the configured engine options.
func checkOptions() engine.Options {
	opts := cfg.Engine.Options()
	opts.ExpandTuples = resolveBool(checkExpandTuples, opts.ExpandTuples)
	opts.FailOnWarnings = resolveBool(checkFailOnWarnings, opts.FailOnWarnings)
	opts.ValidateQueries = opts.ValidateQueries && !checkSkipQueries

	return opts
}

// loadModel loads and links the model named by the first argument or by
// the configuration.
func loadModel(args []string) (string, *model.Model, error) {
	var arg string
	if len(args) > 0 {
		arg = args[0]
	}

	path := cfg.ResolvedModel(arg)
	if path == "" {
		return "", nil, cli.ConfigError("no model given and none configured", nil)
	}

	m, err := engine.Load(path)
	if err != nil {
		return path, nil, cli.ModelLoadError("loading model", err)
	}

	logger.Debug("model loaded", "path", path, "artifacts", m.Len())

	return path, m, nil
}
