package repository

import (
	"time"

	"mlboard/scoring"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Standing is one participant's normalized result within one competition.
// Rows are upserted on every sync and only removed when the competition
// itself is deleted.
type Standing struct {
	CompetitionId  int     `gorm:"primaryKey;autoIncrement:false;constraint:OnDelete:CASCADE"`
	ParticipantKey string  `gorm:"primaryKey"`
	UserId         *int    `gorm:"index;null;constraint:OnDelete:CASCADE"`
	TeamName       string  `gorm:"not null"`
	Score          float64 `gorm:"not null"`
	Rank           int     `gorm:"not null"`
	SubmittedAt    *time.Time
	UpdatedAt      time.Time
}

func (s *Standing) ToScoring() *scoring.Standing {
	return &scoring.Standing{
		UserId:      s.UserId,
		TeamName:    s.TeamName,
		Score:       s.Score,
		Rank:        s.Rank,
		SubmittedAt: s.SubmittedAt,
	}
}

type StandingRepository struct {
	DB *gorm.DB
}

func NewStandingRepository(db *gorm.DB) *StandingRepository {
	return &StandingRepository{DB: db}
}

// UpsertStandings writes one sync batch for a competition. Existing rows are
// updated in place, new participants are inserted; the whole batch is applied
// in a single transaction.
func (r *StandingRepository) UpsertStandings(competitionId int, standings []*scoring.Standing) error {
	timer := prometheus.NewTimer(queryDuration.WithLabelValues("UpsertStandings"))
	defer timer.ObserveDuration()

	if len(standings) == 0 {
		return nil
	}
	rows := make([]*Standing, 0, len(standings))
	for _, standing := range standings {
		rows = append(rows, &Standing{
			CompetitionId:  competitionId,
			ParticipantKey: standing.Key(),
			UserId:         standing.UserId,
			TeamName:       standing.TeamName,
			Score:          standing.Score,
			Rank:           standing.Rank,
			SubmittedAt:    standing.SubmittedAt,
		})
	}
	return r.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "competition_id"}, {Name: "participant_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"user_id", "team_name", "score", "rank", "submitted_at", "updated_at",
			}),
		}).CreateInBatches(rows, 500).Error
	})
}

func (r *StandingRepository) GetStandingsForCompetition(competitionId int) ([]*Standing, error) {
	timer := prometheus.NewTimer(queryDuration.WithLabelValues("GetStandingsForCompetition"))
	defer timer.ObserveDuration()

	var standings []*Standing
	result := r.DB.Order("rank").Find(&standings, "competition_id = ?", competitionId)
	if result.Error != nil {
		return nil, result.Error
	}
	return standings, nil
}

func (r *StandingRepository) GetStandingsForCompetitions(competitionIds []int) (map[int][]*Standing, error) {
	timer := prometheus.NewTimer(queryDuration.WithLabelValues("GetStandingsForCompetitions"))
	defer timer.ObserveDuration()

	var standings []*Standing
	result := r.DB.Order("rank").Find(&standings, "competition_id IN ?", competitionIds)
	if result.Error != nil {
		return nil, result.Error
	}
	byCompetition := make(map[int][]*Standing)
	for _, standing := range standings {
		byCompetition[standing.CompetitionId] = append(byCompetition[standing.CompetitionId], standing)
	}
	return byCompetition, nil
}

// GetRankedParticipants returns the user-linked standings of a competition in
// rank order, the input shape for the rating engine.
func (r *StandingRepository) GetRankedParticipants(competitionId int) ([]*Standing, error) {
	var standings []*Standing
	result := r.DB.Order("rank").Find(&standings, "competition_id = ? AND user_id IS NOT NULL", competitionId)
	if result.Error != nil {
		return nil, result.Error
	}
	return standings, nil
}

// CreateRegistration inserts the zero-score standing that marks a user as
// registered for a competition. It is a no-op if the user already has a row.
func (r *StandingRepository) CreateRegistration(competitionId int, user *User) (bool, error) {
	standing := &Standing{
		CompetitionId:  competitionId,
		ParticipantKey: (&scoring.Standing{UserId: &user.Id}).Key(),
		UserId:         &user.Id,
		TeamName:       user.Username,
	}
	result := r.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(standing)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
