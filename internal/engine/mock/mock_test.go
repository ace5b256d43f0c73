package mock

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/yungbote/breakdown-backend/internal/engine"
)

func TestGenerateTextConceptPrompt(t *testing.T) {
	out, err := New().GenerateText(context.Background(), "mock-1",
		engine.UserMessage("Explain things.\n"+ConceptMarker+" Photosynthesis"),
		engine.GenerateOptions{JSONMode: true})
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	var got conceptPayload
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("unmarshal: %v (%s)", err, out)
	}
	if got.Concept != "Photosynthesis" || len(got.Mermaid) != 1 || len(got.Examples) != 1 {
		t.Fatalf("got=%+v", got)
	}
}

func TestGenerateTextDiagramPrompt(t *testing.T) {
	out, err := New().GenerateText(context.Background(), "mock-1",
		engine.UserMessage(DiagramMarker+`"Entropy [physics]"`+"\n\nrules..."),
		engine.GenerateOptions{JSONMode: true})
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	var got diagramPayload
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Diagrams) != 1 || got.Diagrams[0].Title != "Entropy [physics] overview" {
		t.Fatalf("got=%+v", got)
	}
	if strings.Contains(got.Diagrams[0].MermaidCode, "[physics]") {
		t.Fatalf("label not escaped: %q", got.Diagrams[0].MermaidCode)
	}
}

func TestGenerateTextHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().GenerateText(ctx, "m", engine.UserMessage("hi"), engine.GenerateOptions{}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestGenerateTextPlain(t *testing.T) {
	out, _ := New().GenerateText(context.Background(), "m", engine.UserMessage("hello"), engine.GenerateOptions{})
	if out != "mock: hello" {
		t.Fatalf("out=%q", out)
	}
}
