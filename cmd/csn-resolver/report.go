package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"sigs.k8s.io/yaml"

	"csn-resolver/internal/diagnostic"
	"csn-resolver/internal/engine"
)

type diagnosticReport struct {
	Severity    string   `json:"severity"`
	Code        string   `json:"code"`
	Location    string   `json:"location,omitempty"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
}

type checkReport struct {
	Model       string             `json:"model"`
	Passed      bool               `json:"passed"`
	Errors      int                `json:"errors"`
	Warnings    int                `json:"warnings"`
	Infos       int                `json:"infos"`
	Rewritten   []string           `json:"rewritten,omitempty"`
	Failed      []string           `json:"failed,omitempty"`
	Diagnostics []diagnosticReport `json:"diagnostics,omitempty"`
}

func newCheckReport(path string, res *engine.Result, diags *diagnostic.Diagnostics, infos bool) checkReport {
	r := checkReport{
		Model:     path,
		Passed:    res.Passed,
		Errors:    res.Errors,
		Warnings:  res.Warnings,
		Infos:     res.Infos,
		Rewritten: res.Rewritten,
		Failed:    res.Failed,
	}

	for _, d := range diags.All() {
		if d.Severity == diagnostic.DiagnosticInfo && !infos {
			continue
		}

		r.Diagnostics = append(r.Diagnostics, diagnosticReport{
			Severity:    d.Severity.String(),
			Code:        d.Kind.String(),
			Location:    d.Location,
			Message:     d.Message,
			Suggestions: d.Suggestions,
		})
	}

	return r
}

func (r checkReport) writeText(w io.Writer) {
	for _, d := range r.Diagnostics {
		line := fmt.Sprintf("%s: %s [%s] %s", d.Location, d.Severity, d.Code, d.Message)
		if len(d.Suggestions) > 0 {
			line += " (did you mean " + strings.Join(d.Suggestions, ", ") + "?)"
		}

		fmt.Fprintln(w, line)
	}

	status := "ok"
	if !r.Passed {
		status = "FAILED"
	}

	fmt.Fprintf(w, "%s: %s, %d error(s), %d warning(s), %d rewritten, %d failed\n",
		r.Model, status, r.Errors, r.Warnings, len(r.Rewritten), len(r.Failed))
}

// render writes v in the configured format. Text output is produced by text.
func render(w io.Writer, format string, v any, text func(io.Writer)) error {
	switch format {
	case "yaml":
		out, err := yaml.Marshal(v)
		if err != nil {
			return err
		}

		_, err = w.Write(out)

		return err

	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(v)

	default:
		text(w)
		return nil
	}
}
