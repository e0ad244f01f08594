package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"csn-resolver/internal/cli"
	"csn-resolver/internal/diagnostic"
	"csn-resolver/internal/engine"
	"csn-resolver/internal/model"
)

var rewriteAll bool

type keyReport struct {
	Name string `json:"name"`
	Ref  string `json:"ref"`
}

type associationReport struct {
	Name   string      `json:"name"`
	State  string      `json:"state"`
	Target string      `json:"target"`
	On     string      `json:"on,omitempty"`
	Keys   []keyReport `json:"keys,omitempty"`
}

var rewriteCmd = &cobra.Command{
	Use:   "rewrite [model]",
	Short: "Print the associations after rewriting",
	Long: `Run the resolution pass and print the on-condition or foreign keys of every
association projected into a view. With --all, associations declared in
entities are printed too.`,
	Example: `  # Show rewritten associations as YAML
  csn-resolver rewrite models/shop.yaml -o yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, m, err := loadModel(args)
		if err != nil {
			return err
		}

		diags := &diagnostic.Diagnostics{}
		eng := engine.New(m, diags, checkOptions())

		if _, err := eng.Run(cmd.Context()); err != nil {
			return cli.GeneralError("running pass", err)
		}

		var reports []associationReport

		for a := range m.Members() {
			if !a.IsAssociation() || (a.Origin == model.NoArtifact && !rewriteAll) {
				continue
			}

			reports = append(reports, describeAssociation(m, a, eng.State(a.ID).String()))
		}

		err = render(cmd.OutOrStdout(), cfg.Output.Format, reports, func(w io.Writer) {
			for _, r := range reports {
				writeAssociation(w, r)
			}
		})
		if err != nil {
			return cli.GeneralError("writing report", err)
		}

		for _, d := range diags.Errors {
			logger.Warn(d.Message, "location", d.Location, "code", d.Kind.String())
		}

		return nil
	},
}

func init() {
	addPassFlags(rewriteCmd)
	rewriteCmd.Flags().BoolVar(&rewriteAll, "all", false, "include associations without origin")
}

func describeAssociation(m *model.Model, a *model.Artifact, state string) associationReport {
	r := associationReport{
		Name:   m.Locator(a.ID),
		State:  state,
		Target: a.Target,
	}

	if a.On != nil {
		r.On = a.On.String()
	}

	for _, k := range a.Keys {
		r.Keys = append(r.Keys, keyReport{Name: k.Name, Ref: k.Ref.String()})
	}

	return r
}

func writeAssociation(w io.Writer, r associationReport) {
	fmt.Fprintf(w, "%s -> %s (%s)\n", r.Name, r.Target, r.State)

	if r.On != "" {
		fmt.Fprintf(w, "  on %s\n", r.On)
	}

	for _, k := range r.Keys {
		if k.Name == k.Ref {
			fmt.Fprintf(w, "  key %s\n", k.Ref)
		} else {
			fmt.Fprintf(w, "  key %s as %s\n", k.Ref, k.Name)
		}
	}
}
