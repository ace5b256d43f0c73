package breakdown

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/yungbote/breakdown-backend/internal/kb"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// PromptInput is the data every prompt template is executed with.
type PromptInput struct {
	Concept string
	Summary string

	System       string
	Schema       string
	Instructions []string

	DiagramGuidelines   []string
	DiagramOutputFormat string
	DiagramExample      string
}

// Prompts renders the breakdown prompts from embedded templates and
// knowledge-base components.
type Prompts struct {
	kb        *kb.Base
	breakdown *template.Template
	outline   *template.Template
	diagrams  *template.Template
}

func NewPrompts(base *kb.Base) (*Prompts, error) {
	if base == nil {
		base = kb.Defaults()
	}
	funcs := template.FuncMap{"add": func(a, b int) int { return a + b }}
	parse := func(name string) (*template.Template, error) {
		t, err := template.New(name).Funcs(funcs).Option("missingkey=zero").ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("%s template parse: %w", name, err)
		}
		return t, nil
	}

	p := &Prompts{kb: base}
	var err error
	if p.breakdown, err = parse("breakdown.tmpl"); err != nil {
		return nil, err
	}
	if p.outline, err = parse("outline.tmpl"); err != nil {
		return nil, err
	}
	if p.diagrams, err = parse("diagrams.tmpl"); err != nil {
		return nil, err
	}
	return p, nil
}

// Breakdown is the single-shot prompt asking for the whole ConceptResult.
func (p *Prompts) Breakdown(concept string) string {
	return render(p.breakdown, p.input(concept, ""))
}

// Outline is the first two-stage prompt: the textual breakdown, built from
// the knowledge-base system prompt, schema and instructions.
func (p *Prompts) Outline(concept string) string {
	return render(p.outline, p.input(concept, ""))
}

// Diagrams is the second two-stage prompt. summary carries the stage-one
// content the diagrams should illustrate.
func (p *Prompts) Diagrams(concept, summary string) string {
	return render(p.diagrams, p.input(concept, summary))
}

func (p *Prompts) input(concept, summary string) PromptInput {
	return PromptInput{
		Concept:             concept,
		Summary:             summary,
		System:              p.kb.SystemPrompt(),
		Schema:              p.kb.Schema(),
		Instructions:        p.kb.Instructions(),
		DiagramGuidelines:   p.kb.DiagramGuidelines(),
		DiagramOutputFormat: p.kb.DiagramOutputFormat(),
		DiagramExample:      p.kb.DiagramExample(),
	}
}

func render(t *template.Template, in PromptInput) string {
	var b bytes.Buffer
	_ = t.Execute(&b, in)
	return strings.TrimSpace(b.String())
}
