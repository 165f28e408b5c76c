package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"mlboard/client"
	"mlboard/config"
	"mlboard/metrics"
	"mlboard/parser"
	"mlboard/repository"
	"mlboard/scoring"

	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"
)

type SyncSummary struct {
	CompetitionId int       `json:"competitionId"`
	TotalRows     int       `json:"totalRows"`
	SkippedRows   int       `json:"skippedRows"`
	Standings     int       `json:"standings"`
	LinkedUsers   int       `json:"linkedUsers"`
	SyncedAt      time.Time `json:"syncedAt"`
}

// StandingsUpdate is the message published after each sync so websocket
// consumers can push fresh standings without polling.
type StandingsUpdate struct {
	CompetitionId int       `json:"competitionId"`
	EventId       int       `json:"eventId"`
	Standings     int       `json:"standings"`
	SyncedAt      time.Time `json:"syncedAt"`
}

type StandingService struct {
	standingRepository    *repository.StandingRepository
	competitionRepository *repository.CompetitionRepository
	userRepository        *repository.UserRepository
	platformClient        *client.PlatformClient
	oauthService          *OauthService

	mu      sync.Mutex
	writers map[int]*kafka.Writer
}

func NewStandingService(db *gorm.DB, platformClient *client.PlatformClient, oauthService *OauthService) *StandingService {
	return &StandingService{
		standingRepository:    repository.NewStandingRepository(db),
		competitionRepository: repository.NewCompetitionRepository(db),
		userRepository:        repository.NewUserRepository(db),
		platformClient:        platformClient,
		oauthService:          oauthService,
		writers:               make(map[int]*kafka.Writer),
	}
}

func (s *StandingService) GetStandings(competitionId int) ([]*repository.Standing, error) {
	return s.standingRepository.GetStandingsForCompetition(competitionId)
}

// SyncCompetition pulls the competition's leaderboard from the platform,
// normalizes it and upserts the result. Rows that cannot be scored are
// skipped; everything else replaces the stored standings for their
// participant key.
func (s *StandingService) SyncCompetition(ctx context.Context, competition *repository.Competition) (*SyncSummary, error) {
	token, err := s.oauthService.GetApplicationToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get platform token: %w", err)
	}
	response, clientError := s.platformClient.GetLeaderboard(token, competition.PlatformSlug)
	if clientError != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard for %s: %v", competition.PlatformSlug, clientError.Error)
	}

	entries := parser.ParseLeaderboardRows(response.Rows)
	lookup, err := s.userRepository.GetParticipantLookup()
	if err != nil {
		return nil, err
	}
	resolve := func(name string) (int, bool) {
		userId, ok := lookup[name]
		return userId, ok
	}

	standings := scoring.BuildStandings(entries, competition.ScoringConfig(), resolve)
	if err := s.standingRepository.UpsertStandings(competition.Id, standings); err != nil {
		return nil, err
	}

	summary := &SyncSummary{
		CompetitionId: competition.Id,
		TotalRows:     len(entries),
		Standings:     len(standings),
		SyncedAt:      time.Now(),
	}
	for _, entry := range entries {
		if !entry.HasValue {
			summary.SkippedRows++
		}
	}
	for _, standing := range standings {
		if standing.UserId != nil {
			summary.LinkedUsers++
		}
	}
	metrics.SyncedRowsTotal.Add(float64(summary.Standings))
	metrics.SkippedRowsTotal.Add(float64(summary.SkippedRows))

	s.publishUpdate(ctx, competition, summary)
	return summary, nil
}

func (s *StandingService) publishUpdate(ctx context.Context, competition *repository.Competition, summary *SyncSummary) {
	if competition.EventId == nil {
		return
	}
	writer, err := s.getWriter(*competition.EventId)
	if err != nil {
		log.Printf("failed to get standings writer for event %d: %v", *competition.EventId, err)
		return
	}
	update := &StandingsUpdate{
		CompetitionId: competition.Id,
		EventId:       *competition.EventId,
		Standings:     summary.Standings,
		SyncedAt:      summary.SyncedAt,
	}
	message, err := json.Marshal(update)
	if err != nil {
		log.Printf("failed to serialize standings update: %v", err)
		return
	}
	err = writer.WriteMessages(ctx, kafka.Message{Value: message})
	if err != nil {
		log.Printf("failed to publish standings update for competition %d: %v", competition.Id, err)
	}
}

func (s *StandingService) getWriter(eventId int) (*kafka.Writer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if writer, ok := s.writers[eventId]; ok {
		return writer, nil
	}
	if err := config.CreateTopic(eventId); err != nil {
		return nil, err
	}
	writer, err := config.GetWriter(eventId)
	if err != nil {
		return nil, err
	}
	s.writers[eventId] = writer
	return writer, nil
}
