package breakdown

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ParseResult decodes model output into a ConceptResult. definition,
// explanation and summary must be strings and examples and mermaid must be
// string arrays; concept falls back to requested when absent. Values are
// copied through unchanged.
func ParseResult(text, requested string) (ConceptResult, error) {
	fields, err := decodeObject(text)
	if err != nil {
		return ConceptResult{}, err
	}

	var out ConceptResult
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"definition", &out.Definition},
		{"explanation", &out.Explanation},
		{"summary", &out.Summary},
	} {
		if err := requireField(fields, f.name, f.dst); err != nil {
			return ConceptResult{}, err
		}
	}
	for _, f := range []struct {
		name string
		dst  *[]string
	}{
		{"examples", &out.Examples},
		{"mermaid", &out.Mermaid},
	} {
		if err := requireField(fields, f.name, f.dst); err != nil {
			return ConceptResult{}, err
		}
	}

	out.Concept = requested
	if raw, ok := fields["concept"]; ok && !isNull(raw) {
		var c string
		if err := json.Unmarshal(raw, &c); err != nil {
			return ConceptResult{}, &MalformedResponseError{Reason: `field "concept" is not a string`, Err: err}
		}
		if strings.TrimSpace(c) != "" {
			out.Concept = c
		}
	}
	return out, nil
}

type diagramEnvelope struct {
	Diagrams []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		MermaidCode string `json:"mermaid_code"`
	} `json:"diagrams"`
	Code map[string]string `json:"CODE"`
}

// ParseDiagrams extracts diagram sources from a diagram-stage answer. Both
// {"diagrams":[{"mermaid_code":...}]} and {"CODE":{"<title>":"<code>"}} are
// accepted; CODE entries are returned in title order.
func ParseDiagrams(text string) ([]string, error) {
	body := sanitizeJSONText(text)
	var env diagramEnvelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return nil, &MalformedResponseError{Reason: "diagram response is not a JSON object", Err: err}
	}

	out := make([]string, 0, len(env.Diagrams)+len(env.Code))
	for _, d := range env.Diagrams {
		if strings.TrimSpace(d.MermaidCode) != "" {
			out = append(out, d.MermaidCode)
		}
	}
	titles := make([]string, 0, len(env.Code))
	for title := range env.Code {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	for _, title := range titles {
		if code := env.Code[title]; strings.TrimSpace(code) != "" {
			out = append(out, code)
		}
	}
	if len(out) == 0 {
		return nil, &MalformedResponseError{Reason: "diagram response contains no diagrams"}
	}
	return out, nil
}

func decodeObject(text string) (map[string]json.RawMessage, error) {
	body := sanitizeJSONText(text)
	if body == "" {
		return nil, &MalformedResponseError{Reason: "empty response"}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &MalformedResponseError{Reason: "response is not a JSON object", Err: err}
		}
		return nil, &MalformedResponseError{Reason: "response is not valid JSON", Err: err}
	}
	if fields == nil {
		return nil, &MalformedResponseError{Reason: "response is not a JSON object"}
	}
	return fields, nil
}

func requireField[T any](fields map[string]json.RawMessage, name string, dst *T) error {
	raw, ok := fields[name]
	if !ok || isNull(raw) {
		return &MalformedResponseError{Reason: fmt.Sprintf("missing required field %q", name)}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &MalformedResponseError{Reason: fmt.Sprintf("field %q has the wrong type", name), Err: err}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

// sanitizeJSONText strips a surrounding ``` fence (with optional language
// tag) from model output.
func sanitizeJSONText(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	firstNL := strings.IndexByte(s, '\n')
	if firstNL == -1 {
		return strings.TrimSpace(strings.Trim(s, "`"))
	}
	s = s[firstNL+1:]
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
