// Package history keeps a log of calibration runs in a SQLite database.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/524D/mzcal/masscal"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultDBFile is used when no path is given
const DefaultDBFile = "mzcal-history.sqlite3"

var errStoreNil = errors.New("history: store is nil")

// Run is one row of the calibration_runs table
type Run struct {
	ID              string `gorm:"primaryKey;type:varchar(36)"`
	InputFile       string `gorm:"index:idx_run_input"`
	Metric          string
	Bias            float64
	ErrorsPooled    int
	ErrorsExtracted int
	PeaksTotal      int
	PeaksZero       int
	PeaksSingle     int
	PeaksMultiple   int
	Fallback        bool      // true if the bias could not be estimated and 0 was used
	CreatedAt       time.Time `gorm:"index:idx_run_created"`
}

// TableName sets the table name used by gorm
func (Run) TableName() string { return "calibration_runs" }

// NewRun fills a Run from the results of a calibration. A new ID is
// generated.
func NewRun(inputFile, metric string, est masscal.BiasEstimate, stats masscal.MatchStats) Run {
	return Run{
		ID:              uuid.NewString(),
		InputFile:       inputFile,
		Metric:          metric,
		Bias:            est.Bias,
		ErrorsPooled:    est.Errors,
		ErrorsExtracted: len(est.Extracted.Items),
		PeaksTotal:      stats.Total,
		PeaksZero:       stats.Zero,
		PeaksSingle:     stats.Single,
		PeaksMultiple:   stats.Multiple,
	}
}

// Store is an open history database
type Store struct {
	db    *gorm.DB
	sqlDB *sql.DB
}

// Open opens (and if needed creates) the history database at path
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultDBFile
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}
	// A single writer avoids "database is locked" from the pure Go driver
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Run{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &Store{db: db, sqlDB: sqlDB}, nil
}

// Close closes the database
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Record stores a run. An empty ID is replaced by a new one.
func (s *Store) Record(ctx context.Context, run *Run) error {
	if s == nil || s.db == nil {
		return errStoreNil
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("recording run %s: %w", run.ID, err)
	}
	return nil
}

// Recent returns the last n runs, newest first
func (s *Store) Recent(ctx context.Context, n int) ([]Run, error) {
	if s == nil || s.db == nil {
		return nil, errStoreNil
	}
	var runs []Run
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("rowid DESC").
		Limit(n).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	return runs, nil
}

// ForInput returns all runs of an input file, newest first
func (s *Store) ForInput(ctx context.Context, inputFile string) ([]Run, error) {
	if s == nil || s.db == nil {
		return nil, errStoreNil
	}
	var runs []Run
	err := s.db.WithContext(ctx).
		Where("input_file = ?", inputFile).
		Order("created_at DESC").
		Order("rowid DESC").
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("querying runs for %s: %w", inputFile, err)
	}
	return runs, nil
}
