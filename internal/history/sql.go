package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/breakdown-backend/internal/breakdown"
	"github.com/yungbote/breakdown-backend/internal/config"
	"github.com/yungbote/breakdown-backend/internal/platform/logger"
)

// HistoryRecord is the gorm row for one entry.
type HistoryRecord struct {
	ID        string         `gorm:"type:varchar(36);primaryKey"`
	Concept   string         `gorm:"type:text;not null"`
	Result    datatypes.JSON
	CreatedAt time.Time      `gorm:"not null;index"`
}

func (HistoryRecord) TableName() string { return "breakdown_history" }

// SQL keeps history in sqlite or postgres through gorm. Rows beyond the
// newest capacity are deleted on insert.
type SQL struct {
	db       *gorm.DB
	log      *logger.Logger
	capacity int
}

func NewSQL(cfg config.SQLConfig, capacity int, log *logger.Logger) (*SQL, error) {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	if log == nil {
		log = logger.Nop()
	}
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", cfg.Driver)
	}

	serviceLog := log.With("service", "SQLHistory", "driver", cfg.Driver)
	serviceLog.Info("Connecting to history database...")
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}
	if err := db.AutoMigrate(&HistoryRecord{}); err != nil {
		return nil, fmt.Errorf("auto migrate history: %w", err)
	}
	return &SQL{db: db, log: serviceLog, capacity: capacity}, nil
}

func (s *SQL) Add(ctx context.Context, concept string, result breakdown.ConceptResult) (Entry, error) {
	e := newEntry(concept, result)
	raw, err := json.Marshal(e.Result)
	if err != nil {
		return Entry{}, err
	}
	rec := HistoryRecord{ID: e.ID, Concept: e.Concept, Result: datatypes.JSON(raw), CreatedAt: e.CreatedAt}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		newest := tx.Model(&HistoryRecord{}).Select("id").Order("created_at DESC").Limit(s.capacity)
		return tx.Where("id NOT IN (?)", newest).Delete(&HistoryRecord{}).Error
	})
	if err != nil {
		return Entry{}, fmt.Errorf("sql history add: %w", err)
	}
	return e, nil
}

func (s *SQL) List(ctx context.Context, limit int) ([]Entry, error) {
	limit = normalizeLimit(limit, s.capacity)
	var rows []HistoryRecord
	if err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("sql history list: %w", err)
	}
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		e, err := toEntry(r)
		if err != nil {
			s.log.Warn("skipping corrupt history entry", "id", r.ID, "error", err)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *SQL) Get(ctx context.Context, id string) (Entry, error) {
	var r HistoryRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("sql history get: %w", err)
	}
	return toEntry(r)
}

func (s *SQL) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toEntry(r HistoryRecord) (Entry, error) {
	var res breakdown.ConceptResult
	if err := json.Unmarshal(r.Result, &res); err != nil {
		return Entry{}, err
	}
	return Entry{ID: r.ID, Concept: r.Concept, Result: res, CreatedAt: r.CreatedAt.UTC()}, nil
}
