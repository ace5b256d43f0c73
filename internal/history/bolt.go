package history

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/yungbote/breakdown-backend/internal/breakdown"
	"github.com/yungbote/breakdown-backend/internal/platform/logger"
)

var (
	bucketEntries = []byte("entries")
	bucketIndex   = []byte("entry_index")
)

// Bolt is a file-backed history. entries maps an 8-byte big-endian sequence
// to the entry JSON, so cursor order is insertion order; entry_index maps
// entry ids to their sequence key.
type Bolt struct {
	db       *bbolt.DB
	log      *logger.Logger
	capacity int
}

func NewBolt(path string, capacity int, log *logger.Logger) (*Bolt, error) {
	if log == nil {
		log = logger.Nop()
	}
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open BoltDB: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketEntries, bucketIndex} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Bolt{db: db, log: log.With("service", "BoltHistory"), capacity: capacity}, nil
}

func (b *Bolt) Add(_ context.Context, concept string, result breakdown.ConceptResult) (Entry, error) {
	e := newEntry(concept, result)
	raw, err := json.Marshal(e)
	if err != nil {
		return Entry{}, err
	}
	err = b.db.Update(func(tx *bbolt.Tx) error {
		entries := tx.Bucket(bucketEntries)
		index := tx.Bucket(bucketIndex)

		seq, err := entries.NextSequence()
		if err != nil {
			return err
		}
		key := seqKey(seq)
		if err := entries.Put(key, raw); err != nil {
			return err
		}
		if err := index.Put([]byte(e.ID), key); err != nil {
			return err
		}
		return b.evict(entries, index)
	})
	if err != nil {
		return Entry{}, fmt.Errorf("bolt history add: %w", err)
	}
	return e, nil
}

// evict drops the oldest entries beyond capacity.
func (b *Bolt) evict(entries, index *bbolt.Bucket) error {
	c := entries.Cursor()
	n := 0
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		n++
	}
	over := n - b.capacity
	if over <= 0 {
		return nil
	}
	for k, v := c.First(); k != nil && over > 0; k, v = c.First() {
		var old Entry
		if err := json.Unmarshal(v, &old); err == nil {
			if err := index.Delete([]byte(old.ID)); err != nil {
				return err
			}
		}
		if err := c.Delete(); err != nil {
			return err
		}
		over--
	}
	return nil
}

func (b *Bolt) List(_ context.Context, limit int) ([]Entry, error) {
	limit = normalizeLimit(limit, b.capacity)
	out := make([]Entry, 0, limit)
	err := b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketEntries).Cursor()
		for k, v := c.Last(); k != nil && len(out) < limit; k, v = c.Prev() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				b.log.Warn("skipping corrupt history entry", "key", binary.BigEndian.Uint64(k), "error", err)
				continue
			}
			out = append(out, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Bolt) Get(_ context.Context, id string) (Entry, error) {
	var (
		e     Entry
		found bool
	)
	err := b.db.View(func(tx *bbolt.Tx) error {
		key := tx.Bucket(bucketIndex).Get([]byte(id))
		if key == nil {
			return nil
		}
		raw := tx.Bucket(bucketEntries).Get(key)
		if raw == nil {
			return nil
		}
		found = true
		return json.Unmarshal(raw, &e)
	})
	if err != nil {
		return Entry{}, err
	}
	if !found {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (b *Bolt) Close() error { return b.db.Close() }

func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}
