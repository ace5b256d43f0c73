package display

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"

	"github.com/yungbote/breakdown-backend/internal/breakdown"
	"github.com/yungbote/breakdown-backend/internal/diagram"
)

// Surface shows one breakdown and owns one diagram slot per non-empty
// Mermaid source. Close must be called to tear the slots down.
type Surface struct {
	result breakdown.ConceptResult
	errMsg string
	slots  []*diagram.Controller
}

// NewSurface mounts result and starts rendering its diagrams with lib.
func NewSurface(result breakdown.ConceptResult, lib diagram.Library, opts diagram.Options) *Surface {
	if lib == nil {
		lib = diagram.BrowserLibrary{}
	}
	s := &Surface{result: result}
	slug := Slug(result.Concept)
	for i, src := range result.Mermaid {
		if strings.TrimSpace(src) == "" {
			continue
		}
		c := diagram.NewController(AnchorID(slug, i), lib, opts)
		c.SetSource(src)
		s.slots = append(s.slots, c)
	}
	return s
}

// NewErrorSurface shows a failed breakdown. It has no diagram slots.
func NewErrorSurface(er breakdown.ErrorResult) *Surface {
	return &Surface{result: er.ConceptResult, errMsg: er.ErrorMessage}
}

// Wait blocks until every slot has settled or ctx ends. Slots still waiting
// for the library are shown with their raw source.
func (s *Surface) Wait(ctx context.Context) error {
	for _, c := range s.slots {
		if err := c.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Surface) Close() {
	for _, c := range s.slots {
		c.Close()
	}
}

func (s *Surface) Slots() []*diagram.Controller {
	return s.slots
}

// View snapshots the surface for the page template.
func (s *Surface) View() *View {
	v := &View{
		Concept:     s.result.Concept,
		Definition:  s.result.Definition,
		Explanation: markdown(s.result.Explanation),
		Examples:    s.result.Examples,
		Summary:     s.result.Summary,
		Error:       s.errMsg,
	}
	for _, c := range s.slots {
		a := c.Anchor()
		d := DiagramView{ID: a.ID, Source: c.Source(), State: c.State().String()}
		switch c.State() {
		case diagram.Failed:
			d.Error = a.Error
		case diagram.Rendered:
			if a.SVG != "" {
				d.SVG = template.HTML(sanitizeSVG(a.SVG))
			} else {
				d.ClientRender = true
			}
		}
		v.Diagrams = append(v.Diagrams, d)
	}
	return v
}

type View struct {
	Concept     string
	Definition  string
	Explanation template.HTML
	Examples    []string
	Diagrams    []DiagramView
	Summary     string
	Error       string
}

// NeedsMermaidJS reports whether any diagram is left for the browser.
func (v *View) NeedsMermaidJS() bool {
	if v == nil {
		return false
	}
	for _, d := range v.Diagrams {
		if d.ClientRender {
			return true
		}
	}
	return false
}

type DiagramView struct {
	ID     string
	Source string
	State  string
	// SVG is sanitized server-rendered markup. Empty with ClientRender set
	// means mermaid.js renders Source in the page.
	SVG          template.HTML
	ClientRender bool
	Error        string
}

// AnchorID is the element id of diagram i of a concept.
func AnchorID(slug string, i int) string {
	return fmt.Sprintf("mermaid-%s-%d", slug, i)
}

// Slug lowercases s and joins its letters and digits with single dashes.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	if b.Len() == 0 {
		return "concept"
	}
	return b.String()
}

func markdown(src string) template.HTML {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}
