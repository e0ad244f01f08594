package diagnostic

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"csn-resolver/internal/common"
)

// Params are the named values a diagnostic message is formatted with.
// The "alternatives" entry, a comma separated list, becomes the suggestions.
type Params map[string]string

// Diagnostics holds all diagnostics reported during a pass.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity DiagnosticSeverity
	// Kind is the type of problem.
	Kind Kind
	// Message is the human-readable description.
	Message string
	// Location identifies the model node the diagnostic relates to.
	Location string
	// Params are the values the message was built from.
	Params Params
	// Suggestions are potential fixes or alternatives.
	Suggestions []string
}

// DiagnosticSeverity represents the severity level of a diagnostic.
type DiagnosticSeverity int

const (
	DiagnosticInfo DiagnosticSeverity = iota
	DiagnosticWarning
	DiagnosticError
)

// String returns a human-readable severity name.
func (s DiagnosticSeverity) String() string {
	switch s {
	case DiagnosticInfo:
		return "info"
	case DiagnosticWarning:
		return "warning"
	case DiagnosticError:
		return "error"
	default:
		return common.UnknownStr
	}
}

// New builds a diagnostic and formats its message.
func New(sev DiagnosticSeverity, kind Kind, loc Location, params Params) Diagnostic {
	d := Diagnostic{
		Severity: sev,
		Kind:     kind,
		Message:  Format(kind, params),
		Location: loc.String(),
		Params:   params,
	}

	if alt := params["alternatives"]; alt != "" {
		d.Suggestions = strings.Split(alt, ", ")
	}

	return d
}

// Format fills the message template of kind with params. Unknown
// placeholders are kept as written.
func Format(kind Kind, params Params) string {
	tmpl := kind.template()

	var b strings.Builder

	for {
		open := strings.IndexByte(tmpl, '{')
		if open < 0 {
			b.WriteString(tmpl)
			break
		}

		end := strings.IndexByte(tmpl[open:], '}')
		if end < 0 {
			b.WriteString(tmpl)
			break
		}

		name := tmpl[open+1 : open+end]
		b.WriteString(tmpl[:open])

		switch v, ok := params[name]; {
		case ok:
			b.WriteString(v)
		case name == "kind":
			b.WriteString(kind.String())
		default:
			b.WriteString(tmpl[open : open+end+1])
		}

		tmpl = tmpl[open+end+1:]
	}

	return b.String()
}

// Error implements Sink.
func (d *Diagnostics) Error(kind Kind, loc Location, params Params) {
	d.AddError(kind, loc, params)
}

// Warning implements Sink.
func (d *Diagnostics) Warning(kind Kind, loc Location, params Params) {
	d.AddWarning(kind, loc, params)
}

// Info implements Sink.
func (d *Diagnostics) Info(kind Kind, loc Location, params Params) {
	d.AddInfo(kind, loc, params)
}

// AddError adds an error diagnostic.
func (d *Diagnostics) AddError(kind Kind, loc Location, params Params) {
	d.Errors = append(d.Errors, New(DiagnosticError, kind, loc, params))
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(kind Kind, loc Location, params Params) {
	d.Warnings = append(d.Warnings, New(DiagnosticWarning, kind, loc, params))
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(kind Kind, loc Location, params Params) {
	d.Infos = append(d.Infos, New(DiagnosticInfo, kind, loc, params))
}

// HasErrors returns true if there are any error diagnostics.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// Merge merges another Diagnostics instance into this one.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

// IsValid returns true if there are no errors.
func (d *Diagnostics) IsValid() bool {
	return len(d.Errors) == 0
}

// Count returns the number of diagnostics of the given kind.
func (d *Diagnostics) Count(kind Kind) int {
	n := 0

	for _, list := range [][]Diagnostic{d.Errors, d.Warnings, d.Infos} {
		for _, x := range list {
			if x.Kind == kind {
				n++
			}
		}
	}

	return n
}

// Kinds returns the kinds of all error diagnostics in reporting order.
func (d *Diagnostics) Kinds() []Kind {
	kinds := make([]Kind, 0, len(d.Errors))
	for _, e := range d.Errors {
		kinds = append(kinds, e.Kind)
	}

	return kinds
}

// All returns every diagnostic, errors first.
func (d *Diagnostics) All() []Diagnostic {
	return slices.Concat(d.Errors, d.Warnings, d.Infos)
}

// Err returns a combined error from all error diagnostics, or nil if valid.
func (d *Diagnostics) Err() error {
	if d.IsValid() {
		return nil
	}

	var parts []string
	for _, e := range d.Errors {
		parts = append(parts, e.String())
	}

	return errors.New(strings.Join(parts, "; "))
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	msg := fmt.Sprintf("[%s] %s", d.Kind, d.Message)
	if d.Location != "" {
		msg = d.Location + ": " + msg
	}

	if len(d.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(d.Suggestions, ", ") + "?)"
	}

	return msg
}
