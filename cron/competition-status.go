package cron

import (
	"context"
	"log"
	"time"

	"mlboard/config"
	"mlboard/repository"
	"mlboard/service"

	"gorm.io/gorm"
)

type StatusService struct {
	ctx                context.Context
	competitionService *service.CompetitionService
	ratingService      *service.RatingService
	jobRepository      *repository.JobRepository
}

func NewStatusService(ctx context.Context, db *gorm.DB) *StatusService {
	return &StatusService{
		ctx:                ctx,
		competitionService: service.NewCompetitionService(db),
		ratingService:      service.NewRatingService(db),
		jobRepository:      repository.NewJobRepository(db),
	}
}

// StatusLoop advances competition statuses on a fixed interval. A transition
// into completed triggers that competition's one-shot rating update.
func (s *StatusService) StatusLoop() {
	interval := time.Duration(config.Env().StatusIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.updateStatuses()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.updateStatuses()
		}
	}
}

func (s *StatusService) updateStatuses() {
	startedAt := time.Now()
	var runErr error
	defer func() {
		if err := s.jobRepository.RecordRun("competition-status", startedAt, runErr); err != nil {
			log.Printf("failed to record status run: %v", err)
		}
	}()

	completed, err := s.competitionService.UpdateStatuses(startedAt)
	if err != nil {
		log.Printf("failed to update competition statuses: %v", err)
		runErr = err
		return
	}
	for _, competition := range completed {
		results, err := s.ratingService.ApplyRatingsForCompetition(competition.Id)
		if err != nil {
			log.Printf("rating update failed for competition %s: %v", competition.PlatformSlug, err)
			runErr = err
			continue
		}
		log.Printf("applied %d rating updates for competition %s", len(results), competition.PlatformSlug)
	}
}
