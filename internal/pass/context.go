package pass

import (
	"log/slog"

	"csn-resolver/internal/diagnostic"
	"csn-resolver/internal/link"
	"csn-resolver/internal/model"
	"csn-resolver/internal/typeres"
)

// Context is threaded through every component of a pass.
type Context struct {
	Model  *model.Model
	Types  *typeres.Resolver
	Linker *link.Linker
	Sink   diagnostic.Sink
	Logger *slog.Logger

	// Current is the artifact being processed.
	Current model.ArtifactID
}

// New creates a context for m. A nil logger discards log output.
func New(m *model.Model, sink diagnostic.Sink, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	types := typeres.New(m)

	return &Context{
		Model:  m,
		Types:  types,
		Linker: link.New(m, types),
		Sink:   sink,
		Logger: logger,
	}
}

// At returns a copy of c with Current set to id.
func (c *Context) At(id model.ArtifactID) *Context {
	cc := *c
	cc.Current = id

	return &cc
}

// Locate returns the location of id.
func (c *Context) Locate(id model.ArtifactID) diagnostic.Location {
	a := c.Model.Art(id)
	if a == nil {
		return diagnostic.Location{}
	}

	var names []string

	for a != nil && a.Parent != model.NoArtifact {
		names = append([]string{a.Name}, names...)
		a = c.Model.Art(a.Parent)
	}

	if a == nil {
		return diagnostic.Location{}
	}

	loc := diagnostic.NewLocation(a.Name)
	for _, n := range names {
		loc = loc.Element(n)
	}

	return loc
}

// Here returns the location of the current artifact.
func (c *Context) Here() diagnostic.Location {
	return c.Locate(c.Current)
}

// Name returns the readable name of id.
func (c *Context) Name(id model.ArtifactID) string {
	return c.Model.Locator(id)
}
