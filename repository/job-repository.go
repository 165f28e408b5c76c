package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecurringJob tracks the last outcome of each background loop so operators
// can see at a glance whether syncing has stalled.
type RecurringJob struct {
	Id             int    `gorm:"primaryKey"`
	Name           string `gorm:"uniqueIndex;not null"`
	LastRunAt      time.Time
	LastDurationMs int64
	LastError      string
	Runs           int `gorm:"not null;default:0"`
}

type JobRepository struct {
	DB *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{DB: db}
}

func (r *JobRepository) RecordRun(name string, startedAt time.Time, runErr error) error {
	errText := ""
	if runErr != nil {
		errText = runErr.Error()
	}
	job := &RecurringJob{
		Name:           name,
		LastRunAt:      startedAt,
		LastDurationMs: time.Since(startedAt).Milliseconds(),
		LastError:      errText,
		Runs:           1,
	}
	return r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.Assignments(map[string]any{
			"last_run_at":      job.LastRunAt,
			"last_duration_ms": job.LastDurationMs,
			"last_error":       job.LastError,
			"runs":             gorm.Expr("runs + 1"),
		}),
	}).Create(job).Error
}

func (r *JobRepository) FindAll() ([]*RecurringJob, error) {
	var jobs []*RecurringJob
	result := r.DB.Order("name").Find(&jobs)
	if result.Error != nil {
		return nil, result.Error
	}
	return jobs, nil
}
