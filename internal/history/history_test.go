package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/breakdown-backend/internal/breakdown"
	"github.com/yungbote/breakdown-backend/internal/config"
)

func result(concept string) breakdown.ConceptResult {
	return breakdown.ConceptResult{
		Concept:     concept,
		Definition:  "def " + concept,
		Explanation: "exp",
		Examples:    []string{"ex"},
		Mermaid:     []string{"graph TD; A-->B;"},
		Summary:     "sum",
	}
}

// exerciseStore runs the behaviour every backend shares.
func exerciseStore(t *testing.T, s Store, capacity int) {
	t.Helper()
	ctx := context.Background()

	empty, err := s.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)

	var ids []string
	for i := 0; i < capacity+2; i++ {
		e, err := s.Add(ctx, fmt.Sprintf("c%d", i), result(fmt.Sprintf("c%d", i)))
		require.NoError(t, err)
		require.NotEmpty(t, e.ID)
		ids = append(ids, e.ID)
	}

	list, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, capacity)
	assert.Equal(t, fmt.Sprintf("c%d", capacity+1), list[0].Concept, "newest first")
	assert.Equal(t, "c2", list[capacity-1].Concept)

	two, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)

	got, err := s.Get(ctx, ids[len(ids)-1])
	require.NoError(t, err)
	assert.Equal(t, result(fmt.Sprintf("c%d", capacity+1)), got.Result)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = s.Get(ctx, ids[0])
	assert.ErrorIs(t, err, ErrNotFound, "evicted entries are gone")
	_, err = s.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemory(3)
	exerciseStore(t, s, 3)
	require.NoError(t, s.Close())
}

func TestBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := NewBolt(path, 3, nil)
	require.NoError(t, err)
	exerciseStore(t, s, 3)
	require.NoError(t, s.Close())

	reopened, err := NewBolt(path, 3, nil)
	require.NoError(t, err)
	defer reopened.Close()
	list, err := reopened.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, list, 3, "entries survive reopen")
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.RedisConfig{Addr: mr.Addr(), KeyPrefix: "breakdown", TTL: config.Duration{Duration: time.Hour}}
	s, err := NewRedis(context.Background(), cfg, 3, nil)
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s, 3)

	assert.Len(t, mr.Keys(), 4, "three entries plus the recent list")
	assert.True(t, mr.Exists("breakdown:recent"))
}

func TestRedisStoreRequiresAddr(t *testing.T) {
	_, err := NewRedis(context.Background(), config.RedisConfig{}, 3, nil)
	assert.Error(t, err)
}

func TestSQLStore(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "history.sqlite")
	s, err := NewSQL(config.SQLConfig{Driver: "sqlite", DSN: dsn}, 3, nil)
	require.NoError(t, err)
	exerciseStore(t, s, 3)

	var rows int64
	require.NoError(t, s.db.Model(&HistoryRecord{}).Count(&rows).Error)
	assert.EqualValues(t, 3, rows, "rows beyond capacity are deleted")
	require.NoError(t, s.Close())
}

func TestMemoryStoreIsolatesResults(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(5)
	r := result("x")
	e, err := s.Add(ctx, "x", r)
	require.NoError(t, err)
	r.Examples[0] = "mutated"
	e.Result.Mermaid[0] = "mutated"

	got, err := s.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "ex", got.Result.Examples[0])
	assert.Equal(t, "graph TD; A-->B;", got.Result.Mermaid[0])
	got.Result.Examples[0] = "mutated"

	list, err := s.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ex", list[0].Result.Examples[0])
	list[0].Result.Mermaid[0] = "mutated"

	again, err := s.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, result("x"), again.Result)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.HistoryConfig{Backend: config.HistoryNone}, nil)
	require.NoError(t, err)
	_, err = s.Get(ctx, "x")
	assert.ErrorIs(t, err, ErrNotFound)
	list, err := s.List(ctx, 5)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	s, err = Open(ctx, config.HistoryConfig{Backend: config.HistoryMemory, Capacity: 2}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(ctx, config.HistoryConfig{Backend: config.HistoryBolt, Bolt: config.BoltConfig{Path: filepath.Join(t.TempDir(), "h.db")}}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Bolt{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, config.HistoryConfig{Backend: "mongo"}, nil)
	assert.Error(t, err)
	_, err = Open(ctx, config.HistoryConfig{Backend: config.HistorySQL, SQL: config.SQLConfig{Driver: "mysql"}}, nil)
	assert.Error(t, err)
}

func TestRecorder(t *testing.T) {
	s := NewMemory(5)
	require.NoError(t, Recorder{Store: s}.Record(context.Background(), "Osmosis", result("Osmosis")))
	list, err := s.List(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Osmosis", list[0].Concept)
}
