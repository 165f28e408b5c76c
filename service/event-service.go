package service

import (
	"mlboard/repository"
	"mlboard/scoring"
	"mlboard/utils"

	"gorm.io/gorm"
)

type EventService struct {
	eventRepository       *repository.EventRepository
	competitionRepository *repository.CompetitionRepository
	standingRepository    *repository.StandingRepository
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{
		eventRepository:       repository.NewEventRepository(db),
		competitionRepository: repository.NewCompetitionRepository(db),
		standingRepository:    repository.NewStandingRepository(db),
	}
}

func (s *EventService) GetAllEvents() ([]*repository.Event, error) {
	return s.eventRepository.FindAll("Competitions")
}

func (s *EventService) GetEventById(eventId int) (*repository.Event, error) {
	return s.eventRepository.GetEventById(eventId, "Competitions")
}

func (s *EventService) GetEventBySlug(slug string) (*repository.Event, error) {
	return s.eventRepository.GetEventBySlug(slug, "Competitions")
}

func (s *EventService) GetCurrentEvent() (*repository.Event, error) {
	return s.eventRepository.GetCurrentEvent("Competitions")
}

func (s *EventService) SaveEvent(event *repository.Event) (*repository.Event, error) {
	return s.eventRepository.Save(event)
}

func (s *EventService) DeleteEvent(eventId int) error {
	event, err := s.eventRepository.GetEventById(eventId)
	if err != nil {
		return err
	}
	return s.eventRepository.Delete(event)
}

// GetEventLeaderboard aggregates the stored standings of every competition in
// the event into one cross-competition table.
func (s *EventService) GetEventLeaderboard(eventId int) ([]*scoring.EventRow, error) {
	competitions, err := s.competitionRepository.GetCompetitionsForEvent(eventId)
	if err != nil {
		return nil, err
	}
	competitionIds := utils.Map(competitions, func(c *repository.Competition) int {
		return c.Id
	})
	standings, err := s.standingRepository.GetStandingsForCompetitions(competitionIds)
	if err != nil {
		return nil, err
	}
	byCompetition := make(map[int][]*scoring.Standing, len(standings))
	for competitionId, rows := range standings {
		byCompetition[competitionId] = utils.Map(rows, func(row *repository.Standing) *scoring.Standing {
			return row.ToScoring()
		})
	}
	return scoring.AggregateEvent(byCompetition, len(competitions)), nil
}
