package cron

import (
	"context"
	"log"
	"time"

	"mlboard/client"
	"mlboard/config"
	"mlboard/metrics"
	"mlboard/repository"
	"mlboard/service"

	"gorm.io/gorm"
)

type SyncService struct {
	ctx                context.Context
	standingService    *service.StandingService
	competitionService *service.CompetitionService
	jobRepository      *repository.JobRepository
}

func NewSyncService(ctx context.Context, db *gorm.DB, platformClient *client.PlatformClient) *SyncService {
	oauthService := service.NewOauthService()
	return &SyncService{
		ctx:                ctx,
		standingService:    service.NewStandingService(db, platformClient, oauthService),
		competitionService: service.NewCompetitionService(db),
		jobRepository:      repository.NewJobRepository(db),
	}
}

// SyncLoop refreshes the standings of every ongoing competition on a fixed
// interval until the context is cancelled.
func (s *SyncService) SyncLoop() {
	interval := time.Duration(config.Env().SyncIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.syncOngoing()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.syncOngoing()
		}
	}
}

func (s *SyncService) syncOngoing() {
	startedAt := time.Now()
	var runErr error
	defer func() {
		if err := s.jobRepository.RecordRun("leaderboard-sync", startedAt, runErr); err != nil {
			log.Printf("failed to record sync run: %v", err)
		}
	}()

	competitions, err := s.competitionService.GetOngoingCompetitions()
	if err != nil {
		log.Printf("failed to load ongoing competitions: %v", err)
		metrics.SyncRunsTotal.WithLabelValues("error").Inc()
		runErr = err
		return
	}
	for _, competition := range competitions {
		summary, err := s.standingService.SyncCompetition(s.ctx, competition)
		if err != nil {
			log.Printf("sync failed for competition %s: %v", competition.PlatformSlug, err)
			metrics.SyncRunsTotal.WithLabelValues("error").Inc()
			runErr = err
			continue
		}
		metrics.SyncRunsTotal.WithLabelValues("success").Inc()
		log.Printf("synced competition %s: %d standings (%d linked, %d rows skipped)",
			competition.PlatformSlug, summary.Standings, summary.LinkedUsers, summary.SkippedRows)
	}
}
