package kb

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/breakdown-backend/internal/platform/logger"
)

// Document is one named prompt component.
type Document map[string]any

// Base holds the prompt components used to build breakdown and diagram
// prompts. Documents live as <id>.json or <id>.yaml files in a directory;
// with no directory the built-in defaults are served from memory.
type Base struct {
	mu   sync.RWMutex
	dir  string
	docs map[string]Document
	log  *logger.Logger
}

// Defaults returns an in-memory base holding the built-in documents.
func Defaults() *Base {
	return &Base{docs: defaultDocuments(), log: logger.Nop()}
}

// Open loads the documents in dir, creating and seeding it when it does not
// exist. Ids absent from the directory fall back to the built-in defaults.
func Open(dir string, log *logger.Logger) (*Base, error) {
	if log == nil {
		log = logger.Nop()
	}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		b := Defaults()
		b.log = log
		return b, nil
	}

	b := &Base{dir: dir, docs: defaultDocuments(), log: log.With("component", "KnowledgeBase")}
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		if err := Seed(dir); err != nil {
			return nil, err
		}
		b.log.Info("knowledge base seeded", "dir", dir)
	} else if err != nil {
		return nil, err
	}

	if err := b.load(); err != nil {
		return nil, err
	}
	return b, nil
}

// Seed writes the default documents into dir as JSON files. Existing files
// are left untouched.
func Seed(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create kb dir: %w", err)
	}
	for id, doc := range defaultDocuments() {
		p := filepath.Join(dir, id+".json")
		if _, err := os.Stat(p); err == nil {
			continue
		}
		if err := writeJSON(p, doc); err != nil {
			return err
		}
	}
	return nil
}

func (b *Base) load() error {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return fmt.Errorf("read kb dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			continue
		}
		p := filepath.Join(b.dir, name)
		raw, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		var doc Document
		if ext == ".json" {
			err = json.Unmarshal(raw, &doc)
		} else {
			err = yaml.Unmarshal(raw, &doc)
		}
		if err != nil {
			b.log.Warn("skipping unreadable kb document", "path", p, "error", err)
			continue
		}
		b.docs[strings.TrimSuffix(name, filepath.Ext(name))] = doc
	}
	return nil
}

// Add stores doc under id, persisting it as JSON when the base is
// directory-backed.
func (b *Base) Add(id string, doc Document) error {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("invalid document id %q", id)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dir != "" {
		if err := writeJSON(filepath.Join(b.dir, id+".json"), doc); err != nil {
			return err
		}
	}
	b.docs[id] = doc
	return nil
}

func (b *Base) Get(id string) (Document, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	d, ok := b.docs[id]
	return d, ok
}

// IDs lists the loaded document ids in sorted order.
func (b *Base) IDs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.docs))
	for id := range b.docs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (b *Base) SystemPrompt() string {
	return b.str(DocSystem, "prompt")
}

func (b *Base) Instructions() []string {
	return b.strs(DocInstructions, "instructions")
}

func (b *Base) DiagramGuidelines() []string {
	return b.strs(DocDiagrams, "guidelines")
}

// Schema is the breakdown schema document as indented JSON.
func (b *Base) Schema() string {
	d, _ := b.Get(DocSchema)
	return indentJSON(d)
}

func (b *Base) DiagramOutputFormat() string {
	d, _ := b.Get(DocDiagrams)
	return indentJSON(d["output_format"])
}

// DiagramExample is the first example diagram as indented JSON, or "{}".
func (b *Base) DiagramExample() string {
	d, _ := b.Get(DocExamples)
	if list, ok := d["diagrams"].([]any); ok && len(list) > 0 {
		return indentJSON(list[0])
	}
	return "{}"
}

func (b *Base) str(id, key string) string {
	d, _ := b.Get(id)
	s, _ := d[key].(string)
	return s
}

func (b *Base) strs(id, key string) []string {
	d, _ := b.Get(id)
	list, _ := d[key].([]any)
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// indentJSON renders v for embedding in prompts, leaving Mermaid arrows
// (-->) unescaped.
func indentJSON(v any) string {
	if v == nil {
		return "{}"
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "{}"
	}
	return strings.TrimRight(buf.String(), "\n")
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
