package repository

import (
	"fmt"
	"time"

	"mlboard/scoring"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// RatingHistory is the append-only record of one rating update. The unique
// index on (user_id, competition_id) enforces at most one update per
// participant per competition at the database level.
type RatingHistory struct {
	Id            int `gorm:"primaryKey"`
	UserId        int `gorm:"not null;index;uniqueIndex:idx_rating_once;constraint:OnDelete:CASCADE"`
	CompetitionId int `gorm:"not null;index;uniqueIndex:idx_rating_once;constraint:OnDelete:CASCADE"`
	OldRating     int `gorm:"not null"`
	NewRating     int `gorm:"not null"`
	RatingChange  int `gorm:"not null"`
	Rank          int `gorm:"not null"`
	CreatedAt     time.Time
}

type RatingRepository struct {
	DB *gorm.DB
}

func NewRatingRepository(db *gorm.DB) *RatingRepository {
	return &RatingRepository{DB: db}
}

// ApplyResults persists a full rating-engine batch for one competition:
// history rows, new current ratings, highest-rating watermarks, participation
// counters and the competition's applied marker, all in one transaction.
// A partial failure rolls back everything.
func (r *RatingRepository) ApplyResults(competitionId int, results []*scoring.RatingResult) error {
	timer := prometheus.NewTimer(queryDuration.WithLabelValues("ApplyRatingResults"))
	defer timer.ObserveDuration()

	return r.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		for _, result := range results {
			history := &RatingHistory{
				UserId:        result.UserId,
				CompetitionId: competitionId,
				OldRating:     result.OldRating,
				NewRating:     result.NewRating,
				RatingChange:  result.Change,
				Rank:          result.Rank,
			}
			if err := tx.Create(history).Error; err != nil {
				return fmt.Errorf("failed to create rating history for user %d: %v", result.UserId, err)
			}
			update := tx.Model(&User{}).Where("id = ?", result.UserId).Updates(map[string]any{
				"elo_rating":                result.NewRating,
				"highest_rating":            gorm.Expr("GREATEST(highest_rating, ?)", result.NewRating),
				"competitions_participated": gorm.Expr("competitions_participated + 1"),
			})
			if update.Error != nil {
				return fmt.Errorf("failed to update rating for user %d: %v", result.UserId, update.Error)
			}
		}
		mark := tx.Model(&Competition{}).Where("id = ?", competitionId).
			Update("ratings_applied_at", now)
		return mark.Error
	})
}

func (r *RatingRepository) GetHistoryForUser(userId int) ([]*RatingHistory, error) {
	var history []*RatingHistory
	result := r.DB.Order("created_at DESC").Find(&history, "user_id = ?", userId)
	if result.Error != nil {
		return nil, result.Error
	}
	return history, nil
}

func (r *RatingRepository) GetHistoryForCompetition(competitionId int) ([]*RatingHistory, error) {
	var history []*RatingHistory
	result := r.DB.Order("rank").Find(&history, "competition_id = ?", competitionId)
	if result.Error != nil {
		return nil, result.Error
	}
	return history, nil
}
