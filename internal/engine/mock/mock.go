package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yungbote/breakdown-backend/internal/engine"
)

// Prompt markers the mock recognises. They match the closing lines of the
// breakdown prompt templates.
const (
	ConceptMarker = "**Concept to process**:"
	DiagramMarker = "Create visual diagrams for: "
)

// Engine answers offline with deterministic, well-formed payloads derived
// from the prompt. It is used for local development and tests.
type Engine struct{}

func New() *Engine {
	return &Engine{}
}

type conceptPayload struct {
	Concept     string   `json:"concept"`
	Definition  string   `json:"definition"`
	Explanation string   `json:"explanation"`
	Examples    []string `json:"examples"`
	Mermaid     []string `json:"mermaid"`
	Summary     string   `json:"summary"`
}

type diagramPayload struct {
	Diagrams []diagram `json:"diagrams"`
}

type diagram struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	MermaidCode string `json:"mermaid_code"`
}

func (e *Engine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var user string
	for i := len(messages) - 1; i >= 0; i-- {
		if strings.EqualFold(messages[i].Role, "user") {
			user = messages[i].Content
			break
		}
	}

	if concept, ok := diagramConcept(user); ok {
		b, err := json.Marshal(diagramPayload{Diagrams: []diagram{{
			Title:       concept + " overview",
			Description: "Main parts of " + concept,
			MermaidCode: fmt.Sprintf("flowchart LR\n    A[%s] --> B[Inputs]\n    A --> C[Outputs]", nodeLabel(concept)),
		}}})
		return string(b), err
	}

	if concept, ok := conceptFromPrompt(user); ok {
		b, err := json.Marshal(conceptPayload{
			Concept:     concept,
			Definition:  concept + " is a concept described by the mock engine.",
			Explanation: "The mock engine explains " + concept + " without calling a provider.",
			Examples:    []string{"A first example of " + concept},
			Mermaid:     []string{fmt.Sprintf("graph TD; A[%s] --> B[Example];", nodeLabel(concept))},
			Summary:     concept + " summarised.",
		})
		return string(b), err
	}

	if opts.JSONMode {
		return "{}", nil
	}
	if strings.TrimSpace(user) == "" {
		return "mock: ok", nil
	}
	return "mock: " + user, nil
}

func conceptFromPrompt(prompt string) (string, bool) {
	i := strings.LastIndex(prompt, ConceptMarker)
	if i < 0 {
		return "", false
	}
	rest := strings.TrimLeft(prompt[i+len(ConceptMarker):], " ")
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	c := strings.TrimSpace(rest)
	return c, c != ""
}

func diagramConcept(prompt string) (string, bool) {
	i := strings.Index(prompt, DiagramMarker)
	if i < 0 {
		return "", false
	}
	rest := strings.TrimSpace(prompt[i+len(DiagramMarker):])
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	c := strings.Trim(strings.TrimSpace(rest), `"`)
	return c, c != ""
}

// nodeLabel keeps mermaid node text free of bracket characters.
func nodeLabel(s string) string {
	return strings.NewReplacer("[", "(", "]", ")", "{", "(", "}", ")", ";", ",").Replace(s)
}
