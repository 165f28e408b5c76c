package repository

import (
	"fmt"
	"time"

	"mlboard/scoring"

	"gorm.io/gorm"
)

type CompetitionStatus string

const (
	StatusUpcoming  CompetitionStatus = "upcoming"
	StatusOngoing   CompetitionStatus = "ongoing"
	StatusCompleted CompetitionStatus = "completed"
)

type Competition struct {
	Id           int    `gorm:"primaryKey"`
	Title        string `gorm:"not null"`
	Description  string `gorm:"null"`
	PlatformSlug string `gorm:"uniqueIndex;not null"`
	PlatformURL  string `gorm:"null"`
	EventId      *int   `gorm:"index;null"`

	StartDate time.Time         `gorm:"not null"`
	EndDate   time.Time         `gorm:"not null"`
	Status    CompetitionStatus `gorm:"type:mlboard.competition_status;not null;default:'upcoming'"`

	// Scoring configuration, see scoring.Normalize.
	HigherIsBetter        bool    `gorm:"not null"`
	MetricMin             float64 `gorm:"not null"`
	MetricMax             float64 `gorm:"not null"`
	PointsForPerfectScore float64 `gorm:"not null;default:100"`
	EvaluationMetric      string  `gorm:"null"`

	RatingWeight         float64 `gorm:"not null;default:1"`
	MaxSubmissionsPerDay int     `gorm:"not null;default:5"`
	ParticipantsCount    int     `gorm:"not null;default:0"`

	// Set when the rating engine output has been applied. Guards against
	// applying deltas twice for the same competition.
	RatingsAppliedAt *time.Time `gorm:"null"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Competition) ScoringConfig() scoring.ScoringConfig {
	return scoring.ScoringConfig{
		HigherIsBetter:        c.HigherIsBetter,
		MetricMin:             c.MetricMin,
		MetricMax:             c.MetricMax,
		PointsForPerfectScore: c.PointsForPerfectScore,
	}
}

// StatusFor derives the status from the competition window at the given time.
func (c *Competition) StatusFor(now time.Time) CompetitionStatus {
	switch {
	case now.Before(c.StartDate):
		return StatusUpcoming
	case now.After(c.EndDate):
		return StatusCompleted
	default:
		return StatusOngoing
	}
}

type CompetitionRepository struct {
	DB *gorm.DB
}

func NewCompetitionRepository(db *gorm.DB) *CompetitionRepository {
	return &CompetitionRepository{DB: db}
}

func (r *CompetitionRepository) GetCompetitionById(competitionId int) (*Competition, error) {
	var competition Competition
	result := r.DB.First(&competition, competitionId)
	if result.Error != nil {
		return nil, result.Error
	}
	return &competition, nil
}

func (r *CompetitionRepository) GetCompetitionBySlug(slug string) (*Competition, error) {
	var competition Competition
	result := r.DB.First(&competition, "platform_slug = ?", slug)
	if result.Error != nil {
		return nil, result.Error
	}
	return &competition, nil
}

func (r *CompetitionRepository) GetCompetitionsByStatus(status CompetitionStatus) ([]*Competition, error) {
	var competitions []*Competition
	result := r.DB.Order("start_date DESC").Find(&competitions, "status = ?", status)
	if result.Error != nil {
		return nil, result.Error
	}
	return competitions, nil
}

func (r *CompetitionRepository) GetCompetitionsForEvent(eventId int) ([]*Competition, error) {
	var competitions []*Competition
	result := r.DB.Order("start_date").Find(&competitions, "event_id = ?", eventId)
	if result.Error != nil {
		return nil, result.Error
	}
	return competitions, nil
}

func (r *CompetitionRepository) FindAll() ([]*Competition, error) {
	var competitions []*Competition
	result := r.DB.Order("start_date DESC").Find(&competitions)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find competitions: %v", result.Error)
	}
	return competitions, nil
}

func (r *CompetitionRepository) Save(competition *Competition) (*Competition, error) {
	result := r.DB.Save(competition)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to save competition: %v", result.Error)
	}
	return competition, nil
}

func (r *CompetitionRepository) Delete(competition *Competition) error {
	return r.DB.Delete(&competition).Error
}

func (r *CompetitionRepository) SetStatus(competitionId int, status CompetitionStatus) error {
	result := r.DB.Model(&Competition{}).Where("id = ?", competitionId).Update("status", status)
	return result.Error
}

func (r *CompetitionRepository) IncrementParticipants(competitionId int) error {
	result := r.DB.Model(&Competition{}).Where("id = ?", competitionId).
		Update("participants_count", gorm.Expr("participants_count + 1"))
	return result.Error
}
