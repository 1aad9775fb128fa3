package runlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/graphloader/internal/domain/kg"
	"github.com/yungbote/graphloader/internal/platform/logger"
)

var (
	ErrNotConfigured = errors.New("runlog: no database configured")
	// ErrRetryable tags failures worth retrying (lock contention, serialization).
	ErrRetryable = errors.New("runlog: retryable")
)

// SourceLog is the persisted form of an Entry.
type SourceLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	RunID     uuid.UUID      `gorm:"type:uuid;index;not null" json:"run_id"`
	Source    string         `gorm:"column:source;not null;index" json:"source"`
	Status    string         `gorm:"column:status;not null" json:"status"`
	Success   int            `gorm:"column:success;not null;default:0" json:"success"`
	Errors    int            `gorm:"column:errors;not null;default:0" json:"errors"`
	Invalid   int            `gorm:"column:invalid;not null;default:0" json:"invalid"`
	Message   string         `gorm:"column:message" json:"message,omitempty"`
	Details   datatypes.JSON `gorm:"column:details" json:"details,omitempty"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
}

func (SourceLog) TableName() string { return "ingest_source_logs" }

type sourceLogDetails struct {
	Reasons map[string]int `json:"reasons,omitempty"`
}

type Config struct {
	DSN        string `yaml:"dsn"`
	SQLitePath string `yaml:"sqlite_path"`
	TextPath   string `yaml:"text_path"`
}

type GormStore struct {
	db  *gorm.DB
	log *logger.Logger
}

// Open connects to postgres when a DSN is set and falls back to a sqlite file.
// ErrNotConfigured is returned when neither is set.
func Open(logg *logger.Logger, cfg Config) (*GormStore, error) {
	var dialector gorm.Dialector
	switch {
	case strings.TrimSpace(cfg.DSN) != "":
		dialector = postgres.Open(strings.TrimSpace(cfg.DSN))
	case strings.TrimSpace(cfg.SQLitePath) != "":
		dialector = sqlite.Open(strings.TrimSpace(cfg.SQLitePath))
	default:
		return nil, ErrNotConfigured
	}

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open run log database: %w", err)
	}
	return NewGormStore(db, logg)
}

// NewGormStore migrates the source log table on an existing connection.
func NewGormStore(db *gorm.DB, log *logger.Logger) (*GormStore, error) {
	if err := db.AutoMigrate(&SourceLog{}); err != nil {
		return nil, fmt.Errorf("failed to migrate run log: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &GormStore{db: db, log: log.With("store", "RunLogStore")}, nil
}

func (s *GormStore) DB() *gorm.DB { return s.db }

func (s *GormStore) Append(ctx context.Context, e Entry) error {
	row := SourceLog{
		ID:        uuid.New(),
		RunID:     e.RunID,
		Source:    e.Source,
		Status:    string(e.Status),
		Success:   e.Result.Success,
		Errors:    e.Result.Errors,
		Invalid:   e.Result.Invalid,
		Message:   e.Message,
		CreatedAt: e.CreatedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if len(e.Reasons) > 0 {
		raw, err := json.Marshal(sourceLogDetails{Reasons: e.Reasons})
		if err != nil {
			return fmt.Errorf("runlog: encode details: %w", err)
		}
		row.Details = datatypes.JSON(raw)
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return mapError("append", err)
	}
	return nil
}

// List returns the entries of one run in insertion order.
func (s *GormStore) List(ctx context.Context, runID uuid.UUID) ([]Entry, error) {
	var rows []SourceLog
	err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("created_at ASC, source ASC").
		Find(&rows).Error
	if err != nil {
		return nil, mapError("list", err)
	}
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		e := Entry{
			RunID:     r.RunID,
			Source:    r.Source,
			Status:    Status(r.Status),
			Message:   r.Message,
			Result:    kg.BatchResult{Success: r.Success, Errors: r.Errors, Invalid: r.Invalid},
			CreatedAt: r.CreatedAt,
		}
		if len(r.Details) > 0 {
			var d sourceLogDetails
			if err := json.Unmarshal(r.Details, &d); err == nil {
				e.Reasons = d.Reasons
			}
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "40001", "40P01", "55P03":
			return fmt.Errorf("runlog %s: %w: %w", op, ErrRetryable, err)
		}
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "deadlock") || strings.Contains(msg, "database is locked") {
		return fmt.Errorf("runlog %s: %w: %w", op, ErrRetryable, err)
	}
	return fmt.Errorf("runlog %s: %w", op, err)
}
