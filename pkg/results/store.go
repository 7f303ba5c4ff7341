package results

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store provides CRUD operations for test runs and their results.
type Store struct {
	db *gorm.DB
}

// NewStore creates a Store over an existing gorm connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Open opens (or creates) the sqlite database at path and returns a
// migrated Store. Use ":memory:" for an ephemeral database.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening results database %s: %w", path, err)
	}
	store := NewStore(db)
	if err := store.AutoMigrate(); err != nil {
		return nil, err
	}
	return store, nil
}

// AutoMigrate creates or updates the results tables.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&TestRun{}); err != nil {
		return fmt.Errorf("auto-migrate test_runs: %w", err)
	}
	if err := s.db.AutoMigrate(&TestResult{}); err != nil {
		return fmt.Errorf("auto-migrate test_results: %w", err)
	}
	return nil
}

// BeginRun records the start of a harness invocation.
func (s *Store) BeginRun(sessionID, platform, profile string) (*TestRun, error) {
	run := &TestRun{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Platform:  platform,
		Profile:   profile,
		Status:    RunStatusRunning,
		StartedAt: time.Now(),
	}
	if err := s.db.Create(run).Error; err != nil {
		return nil, fmt.Errorf("create test run: %w", err)
	}
	return run, nil
}

// RecordResult appends one test outcome to a run and bumps the run's
// counters.
func (s *Store) RecordResult(runID string, result *TestResult) error {
	if result.ID == "" {
		result.ID = uuid.New().String()
	}
	result.RunID = runID
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(result).Error; err != nil {
			return fmt.Errorf("create test result: %w", err)
		}
		var column string
		switch result.Outcome {
		case OutcomePassed:
			column = "passed"
		case OutcomeFailed:
			column = "failed"
		case OutcomeSkipped:
			column = "skipped"
		default:
			return fmt.Errorf("unknown outcome %q", result.Outcome)
		}
		return tx.Model(&TestRun{}).Where("id = ?", runID).
			UpdateColumn(column, gorm.Expr(column+" + 1")).Error
	})
}

// FinishRun marks a run completed (or aborted) and stamps the finish time.
func (s *Store) FinishRun(runID, status string) error {
	now := time.Now()
	res := s.db.Model(&TestRun{}).Where("id = ?", runID).Updates(map[string]any{
		"status":      status,
		"finished_at": &now,
	})
	if res.Error != nil {
		return fmt.Errorf("finish test run: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("test run %q not found", runID)
	}
	return nil
}

// GetRun retrieves one run by ID. Returns nil, nil if it does not exist.
func (s *Store) GetRun(runID string) (*TestRun, error) {
	var run TestRun
	err := s.db.Where("id = ?", runID).First(&run).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get test run: %w", err)
	}
	return &run, nil
}

// LatestRuns returns the most recent runs, newest first, optionally
// filtered by platform.
func (s *Store) LatestRuns(platform string, limit int) ([]TestRun, error) {
	if limit <= 0 {
		limit = 20
	}
	q := s.db.Order("started_at DESC").Limit(limit)
	if platform != "" {
		q = q.Where("platform = ?", platform)
	}
	var runs []TestRun
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("list test runs: %w", err)
	}
	return runs, nil
}

// ResultsForRun returns a run's results ordered by test name.
func (s *Store) ResultsForRun(runID string) ([]TestResult, error) {
	var out []TestResult
	err := s.db.Where("run_id = ?", runID).Order("test_name ASC").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list test results: %w", err)
	}
	return out, nil
}

// FailuresForRun returns only the failed results of a run.
func (s *Store) FailuresForRun(runID string) ([]TestResult, error) {
	var out []TestResult
	err := s.db.Where("run_id = ? AND outcome = ?", runID, OutcomeFailed).
		Order("test_name ASC").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list failed results: %w", err)
	}
	return out, nil
}
