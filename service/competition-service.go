package service

import (
	"fmt"
	"time"

	"mlboard/app_error"
	"mlboard/repository"

	"gorm.io/gorm"
)

type CompetitionService struct {
	competitionRepository *repository.CompetitionRepository
	standingRepository    *repository.StandingRepository
}

func NewCompetitionService(db *gorm.DB) *CompetitionService {
	return &CompetitionService{
		competitionRepository: repository.NewCompetitionRepository(db),
		standingRepository:    repository.NewStandingRepository(db),
	}
}

func (s *CompetitionService) GetCompetitionById(competitionId int) (*repository.Competition, error) {
	return s.competitionRepository.GetCompetitionById(competitionId)
}

func (s *CompetitionService) GetCompetitionBySlug(slug string) (*repository.Competition, error) {
	return s.competitionRepository.GetCompetitionBySlug(slug)
}

func (s *CompetitionService) GetAllCompetitions() ([]*repository.Competition, error) {
	return s.competitionRepository.FindAll()
}

func (s *CompetitionService) GetOngoingCompetitions() ([]*repository.Competition, error) {
	return s.competitionRepository.GetCompetitionsByStatus(repository.StatusOngoing)
}

func (s *CompetitionService) SaveCompetition(competition *repository.Competition) (*repository.Competition, error) {
	if competition.EndDate.Before(competition.StartDate) {
		return nil, fmt.Errorf("competition end date must not precede its start date")
	}
	if competition.Status == "" {
		competition.Status = competition.StatusFor(time.Now())
	}
	return s.competitionRepository.Save(competition)
}

func (s *CompetitionService) DeleteCompetition(competitionId int) error {
	competition, err := s.competitionRepository.GetCompetitionById(competitionId)
	if err != nil {
		return err
	}
	return s.competitionRepository.Delete(competition)
}

// UpdateStatuses moves every competition whose window has passed a boundary
// into its new status and returns the ones that just completed, so the caller
// can trigger their one-shot rating update.
func (s *CompetitionService) UpdateStatuses(now time.Time) ([]*repository.Competition, error) {
	completed := make([]*repository.Competition, 0)
	for _, status := range []repository.CompetitionStatus{repository.StatusUpcoming, repository.StatusOngoing} {
		competitions, err := s.competitionRepository.GetCompetitionsByStatus(status)
		if err != nil {
			return nil, err
		}
		for _, competition := range competitions {
			next := competition.StatusFor(now)
			if next == competition.Status {
				continue
			}
			if err := s.competitionRepository.SetStatus(competition.Id, next); err != nil {
				return nil, err
			}
			competition.Status = next
			if next == repository.StatusCompleted {
				completed = append(completed, competition)
			}
		}
	}
	return completed, nil
}

// RegisterUser adds the user to a competition with an empty standing. Returns
// false without error when the user was already registered.
func (s *CompetitionService) RegisterUser(competitionId int, user *repository.User) (bool, error) {
	competition, err := s.competitionRepository.GetCompetitionById(competitionId)
	if err != nil {
		return false, err
	}
	if competition.Status == repository.StatusCompleted {
		return false, app_error.New(fmt.Errorf("competition %s has already ended", competition.PlatformSlug), 409)
	}
	created, err := s.standingRepository.CreateRegistration(competitionId, user)
	if err != nil {
		return false, err
	}
	if created {
		if err := s.competitionRepository.IncrementParticipants(competitionId); err != nil {
			return false, err
		}
	}
	return created, nil
}
