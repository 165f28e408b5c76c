package service

import (
	"fmt"
	"log"
	"sync"

	"mlboard/app_error"
	"mlboard/metrics"
	"mlboard/repository"
	"mlboard/scoring"

	"gorm.io/gorm"
)

type RatingService struct {
	ratingRepository      *repository.RatingRepository
	standingRepository    *repository.StandingRepository
	competitionRepository *repository.CompetitionRepository
	userRepository        *repository.UserRepository

	mu         sync.Mutex
	inProgress map[int]bool
}

func NewRatingService(db *gorm.DB) *RatingService {
	return &RatingService{
		ratingRepository:      repository.NewRatingRepository(db),
		standingRepository:    repository.NewStandingRepository(db),
		competitionRepository: repository.NewCompetitionRepository(db),
		userRepository:        repository.NewUserRepository(db),
		inProgress:            make(map[int]bool),
	}
}

func (s *RatingService) tryLock(competitionId int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inProgress[competitionId] {
		return false
	}
	s.inProgress[competitionId] = true
	return true
}

func (s *RatingService) unlock(competitionId int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inProgress, competitionId)
}

// ApplyRatingsForCompetition runs the rating update for a finished
// competition exactly once. Participants are the user-linked standings in
// final rank order; their stored ranks are densified so ties and unlinked
// teams do not leave gaps.
func (s *RatingService) ApplyRatingsForCompetition(competitionId int) ([]*scoring.RatingResult, error) {
	if !s.tryLock(competitionId) {
		return nil, app_error.New(fmt.Errorf("rating update for competition %d already in progress", competitionId), 409)
	}
	defer s.unlock(competitionId)

	competition, err := s.competitionRepository.GetCompetitionById(competitionId)
	if err != nil {
		return nil, err
	}
	if competition.Status != repository.StatusCompleted {
		return nil, app_error.New(fmt.Errorf("competition %d is %s, ratings are only updated once it is completed",
			competitionId, competition.Status), 409)
	}
	if competition.RatingsAppliedAt != nil {
		return nil, app_error.New(fmt.Errorf("ratings for competition %d were already applied at %s",
			competitionId, competition.RatingsAppliedAt), 409)
	}

	standings, err := s.standingRepository.GetRankedParticipants(competitionId)
	if err != nil {
		return nil, err
	}
	if len(standings) == 0 {
		log.Printf("competition %d has no rated participants, skipping rating update", competitionId)
		return nil, nil
	}

	participants := make([]*scoring.RatingParticipant, 0, len(standings))
	for i, standing := range standings {
		user, err := s.userRepository.GetUserById(*standing.UserId)
		if err != nil {
			return nil, err
		}
		participants = append(participants, &scoring.RatingParticipant{
			UserId: user.Id,
			Rating: user.EloRating,
			Rank:   i + 1,
		})
	}

	results, err := scoring.UpdateRatings(participants, competition.RatingWeight)
	if err != nil {
		return nil, err
	}
	if err := s.ratingRepository.ApplyResults(competitionId, results); err != nil {
		return nil, err
	}
	metrics.RatingUpdatesTotal.Add(float64(len(results)))
	return results, nil
}

func (s *RatingService) GetHistoryForCompetition(competitionId int) ([]*repository.RatingHistory, error) {
	return s.ratingRepository.GetHistoryForCompetition(competitionId)
}
