package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"csn-resolver/internal/cli"
	"csn-resolver/internal/model"
	"csn-resolver/internal/typeres"
)

var typeRaw bool

type typeReport struct {
	Ref       string   `json:"ref"`
	Name      string   `json:"name"`
	Shape     string   `json:"shape"`
	Length    *int     `json:"length,omitempty"`
	Precision *int     `json:"precision,omitempty"`
	Scale     *int     `json:"scale,omitempty"`
	Enum      []string `json:"enum,omitempty"`
	Elements  []string `json:"elements,omitempty"`
	Target    string   `json:"target,omitempty"`
}

var typeCmd = &cobra.Command{
	Use:   "type <model> <type-ref>",
	Short: "Resolve a type reference",
	Long: `Resolve a type reference of a model to its terminal type and print the
facets collected along the chain. A reference is a builtin such as cds.String,
a named definition, or a "type of" reference such as E:addr.city.`,
	Example: `  # Resolve the type of an element
  csn-resolver type models/shop.yaml Books:price

  # Dump the raw descriptor
  csn-resolver type models/shop.yaml my.Address --raw`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, m, err := loadModel(args[:1])
		if err != nil {
			return err
		}

		ref := model.ParseTypeRef(args[1])

		desc, err := typeres.New(m).Resolve(ref)
		if err != nil {
			return cli.DiagnosticsError(fmt.Sprintf("resolving %s", ref), err)
		}

		w := cmd.OutOrStdout()

		if typeRaw {
			spew.Fdump(w, desc)
			return nil
		}

		report := describeType(ref, desc)

		return render(w, cfg.Output.Format, report, func(w io.Writer) {
			fmt.Fprintf(w, "%s: %s (%s)\n", report.Ref, report.Name, report.Shape)

			if len(report.Elements) > 0 {
				fmt.Fprintf(w, "  elements: %s\n", strings.Join(report.Elements, ", "))
			}

			if report.Target != "" {
				fmt.Fprintf(w, "  target: %s\n", report.Target)
			}

			if report.Length != nil {
				fmt.Fprintf(w, "  length: %d\n", *report.Length)
			}

			if report.Precision != nil {
				fmt.Fprintf(w, "  precision: %d\n", *report.Precision)
			}

			if report.Scale != nil {
				fmt.Fprintf(w, "  scale: %d\n", *report.Scale)
			}

			if len(report.Enum) > 0 {
				fmt.Fprintf(w, "  enum: %s\n", strings.Join(report.Enum, ", "))
			}
		})
	},
}

func init() {
	typeCmd.Flags().BoolVar(&typeRaw, "raw", false, "dump the resolved descriptor")
}

func describeType(ref model.TypeRef, desc *typeres.Descriptor) typeReport {
	r := typeReport{Ref: ref.String(), Shape: "untyped"}
	if desc == nil {
		return r
	}

	r.Name = desc.Name
	r.Length = desc.Facets.Length
	r.Precision = desc.Facets.Precision
	r.Scale = desc.Facets.Scale
	r.Enum = desc.Facets.Enum

	switch {
	case desc.Association():
		r.Shape = "association"
		r.Target = desc.Art.Target
	case desc.Arrayed():
		r.Shape = "array"
	case desc.Structured():
		r.Shape = "structure"
		r.Elements = desc.Art.Elements.Names()
	default:
		r.Shape = "scalar"
	}

	return r
}
