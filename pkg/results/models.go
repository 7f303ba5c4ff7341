// Package results persists test run outcomes to a local sqlite database so
// consecutive harness runs can be compared and reported on.
package results

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusAborted   = "aborted"
)

// Result outcomes.
const (
	OutcomePassed  = "passed"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// JSONStringSlice is a custom GORM type for []string stored as JSON.
type JSONStringSlice []string

// Scan implements the sql.Scanner interface for JSONStringSlice.
func (s *JSONStringSlice) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case string:
		bytes = []byte(v)
	case []byte:
		bytes = v
	default:
		return fmt.Errorf("unsupported type for JSONStringSlice: %T", value)
	}
	return json.Unmarshal(bytes, s)
}

// Value implements the driver.Valuer interface for JSONStringSlice.
func (s JSONStringSlice) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// TestRun is one invocation of the harness against a platform.
type TestRun struct {
	ID         string     `gorm:"primaryKey;column:id;type:varchar(36)"`
	SessionID  string     `gorm:"column:session_id;index;not null"`
	Platform   string     `gorm:"column:platform;index:idx_runs_platform_time,priority:1;not null"`
	Profile    string     `gorm:"column:profile"`
	Status     string     `gorm:"column:status;default:running;not null"`
	Passed     int        `gorm:"column:passed"`
	Failed     int        `gorm:"column:failed"`
	Skipped    int        `gorm:"column:skipped"`
	StartedAt  time.Time  `gorm:"column:started_at;index:idx_runs_platform_time,priority:2"`
	FinishedAt *time.Time `gorm:"column:finished_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the GORM table name.
func (TestRun) TableName() string { return "test_runs" }

// TestResult is the outcome of one test within a run.
type TestResult struct {
	ID         string          `gorm:"primaryKey;column:id;type:varchar(36)"`
	RunID      string          `gorm:"column:run_id;index;not null"`
	TestName   string          `gorm:"column:test_name;index;not null"`
	Suite      string          `gorm:"column:suite;index"`
	Category   string          `gorm:"column:category"`
	Priority   string          `gorm:"column:priority"`
	Severity   string          `gorm:"column:severity"`
	Outcome    string          `gorm:"column:outcome;not null"`
	Message    string          `gorm:"column:message"`
	DurationMS int64           `gorm:"column:duration_ms"`
	Tags       JSONStringSlice `gorm:"column:tags;type:text"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the GORM table name.
func (TestResult) TableName() string { return "test_results" }
