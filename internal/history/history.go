package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/breakdown-backend/internal/breakdown"
	"github.com/yungbote/breakdown-backend/internal/config"
	"github.com/yungbote/breakdown-backend/internal/platform/logger"
)

var ErrNotFound = errors.New("history entry not found")

// DefaultListLimit applies when List is called with limit <= 0.
const DefaultListLimit = 20

// Entry is one successful breakdown.
type Entry struct {
	ID        string                  `json:"id"`
	Concept   string                  `json:"concept"`
	Result    breakdown.ConceptResult `json:"result"`
	CreatedAt time.Time               `json:"createdAt"`
}

// Store keeps recent breakdowns. List returns newest first.
type Store interface {
	Add(ctx context.Context, concept string, result breakdown.ConceptResult) (Entry, error)
	List(ctx context.Context, limit int) ([]Entry, error)
	Get(ctx context.Context, id string) (Entry, error)
	Close() error
}

// Open builds the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.HistoryConfig, log *logger.Logger) (Store, error) {
	if log == nil {
		log = logger.Nop()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case config.HistoryNone:
		return Disabled{}, nil
	case "", config.HistoryMemory:
		return NewMemory(cfg.Capacity), nil
	case config.HistoryRedis:
		return NewRedis(ctx, cfg.Redis, cfg.Capacity, log)
	case config.HistoryBolt:
		return NewBolt(cfg.Bolt.Path, cfg.Capacity, log)
	case config.HistorySQL:
		return NewSQL(cfg.SQL, cfg.Capacity, log)
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}

// Recorder adapts a Store to breakdown.Recorder.
type Recorder struct {
	Store Store
}

func (r Recorder) Record(ctx context.Context, concept string, result breakdown.ConceptResult) error {
	_, err := r.Store.Add(ctx, concept, result)
	return err
}

// Disabled is the "none" backend.
type Disabled struct{}

func (Disabled) Add(_ context.Context, concept string, result breakdown.ConceptResult) (Entry, error) {
	return newEntry(concept, result), nil
}
func (Disabled) List(context.Context, int) ([]Entry, error) { return []Entry{}, nil }
func (Disabled) Get(context.Context, string) (Entry, error) { return Entry{}, ErrNotFound }
func (Disabled) Close() error                                { return nil }

func newEntry(concept string, result breakdown.ConceptResult) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Concept:   concept,
		Result:    result.Clone(),
		CreatedAt: time.Now().UTC(),
	}
}

func normalizeLimit(limit, capacity int) int {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if capacity > 0 && limit > capacity {
		limit = capacity
	}
	return limit
}
