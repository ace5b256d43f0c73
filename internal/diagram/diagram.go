package diagram

import (
	"context"
	"slices"
	"time"
)

const (
	DefaultPollInterval = 200 * time.Millisecond
	DefaultMaxAttempts  = 15

	// MermaidClass marks an anchor for the charting library.
	MermaidClass = "mermaid"

	StatusLoading        = "Mermaid library loading or not initialized. Waiting..."
	MessageLibraryFailed = "Mermaid library failed to load."
	RunErrorPrefix       = "Mermaid run error: "
)

type State int

const (
	Idle State = iota
	AwaitingLibrary
	Rendering
	Rendered
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingLibrary:
		return "awaiting_library"
	case Rendering:
		return "rendering"
	case Rendered:
		return "rendered"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition happens without a new
// source.
func (s State) Terminal() bool {
	return s == Rendered || s == Failed
}

// Library is the charting library seen by a controller. Ready is polled and
// must not block. Run renders source and returns the markup to place in the
// anchor; an empty string leaves the raw source for a client-side renderer.
type Library interface {
	Ready() bool
	Run(ctx context.Context, source string) (string, error)
}

// BrowserLibrary defers rendering to mermaid.js in the page: it is always
// ready and Run leaves the source in place.
type BrowserLibrary struct{}

func (BrowserLibrary) Ready() bool                                  { return true }
func (BrowserLibrary) Run(context.Context, string) (string, error) { return "", nil }

// Anchor is the element a slot renders into.
type Anchor struct {
	ID      string
	Classes []string
	// Text holds the raw diagram source; it is kept after a failure so the
	// source stays inspectable.
	Text  string
	SVG   string
	Error string
}

func (a Anchor) HasClass(name string) bool {
	return slices.Contains(a.Classes, name)
}

func (a Anchor) clone() Anchor {
	a.Classes = slices.Clone(a.Classes)
	return a
}

// RenderError is a failed render. It never leaves the display surface.
type RenderError struct {
	Message string
}

func (e *RenderError) Error() string     { return e.Message }
func (e *RenderError) ErrorKind() string { return "render_error" }
