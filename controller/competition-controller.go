package controller

import (
	"strconv"
	"time"

	"mlboard/app_error"
	"mlboard/client"
	"mlboard/repository"
	"mlboard/service"
	"mlboard/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CompetitionController struct {
	competitionService *service.CompetitionService
	standingService    *service.StandingService
	userService        *service.UserService
}

// NewCompetitionController shares the process-wide platform client so admin
// syncs and the cron loop draw from the same request budget.
func NewCompetitionController(db *gorm.DB, platformClient *client.PlatformClient) *CompetitionController {
	return &CompetitionController{
		competitionService: service.NewCompetitionService(db),
		standingService:    service.NewStandingService(db, platformClient, service.NewOauthService()),
		userService:        service.NewUserService(db),
	}
}

func setupCompetitionController(db *gorm.DB, platformClient *client.PlatformClient) []RouteInfo {
	e := NewCompetitionController(db, platformClient)
	basePath := "/competitions"
	routes := []RouteInfo{
		{Method: "GET", Path: "", HandlerFunc: e.getCompetitionsHandler()},
		{Method: "POST", Path: "", HandlerFunc: e.createCompetitionHandler(), Authenticated: true, RoleRequired: []string{"admin"}},
		{Method: "GET", Path: "/:competition_id", HandlerFunc: e.getCompetitionHandler()},
		{Method: "PATCH", Path: "/:competition_id", HandlerFunc: e.updateCompetitionHandler(), Authenticated: true, RoleRequired: []string{"admin"}},
		{Method: "DELETE", Path: "/:competition_id", HandlerFunc: e.deleteCompetitionHandler(), Authenticated: true, RoleRequired: []string{"admin"}},
		{Method: "GET", Path: "/:competition_id/leaderboard", HandlerFunc: e.getLeaderboardHandler()},
		{Method: "POST", Path: "/:competition_id/register", HandlerFunc: e.registerHandler(), Authenticated: true},
		{Method: "POST", Path: "/:competition_id/sync", HandlerFunc: e.syncHandler(), Authenticated: true, RoleRequired: []string{"admin"}},
	}
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

func (e *CompetitionController) getCompetition(c *gin.Context) *repository.Competition {
	competitionId, err := strconv.Atoi(c.Param("competition_id"))
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return nil
	}
	competition, err := e.competitionService.GetCompetitionById(competitionId)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(404, gin.H{"error": "Competition not found"})
		} else {
			c.JSON(500, gin.H{"error": err.Error()})
		}
		return nil
	}
	return competition
}

// @Description Fetches all competitions
// @Tags competition
// @Produce json
// @Success 200 {array} CompetitionResponse
// @Router /competitions [get]
func (e *CompetitionController) getCompetitionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		competitions, err := e.competitionService.GetAllCompetitions()
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, utils.Map(competitions, toCompetitionResponse))
	}
}

// @Description Creates a competition
// @Tags competition
// @Accept json
// @Produce json
// @Param competition body CompetitionCreate true "Competition to create"
// @Success 201 {object} CompetitionResponse
// @Router /competitions [post]
func (e *CompetitionController) createCompetitionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var competitionCreate CompetitionCreate
		if err := c.BindJSON(&competitionCreate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		competition, err := e.competitionService.SaveCompetition(competitionCreate.toModel())
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(201, toCompetitionResponse(competition))
	}
}

// @Description Gets a competition by id
// @Tags competition
// @Produce json
// @Param competition_id path int true "Competition Id"
// @Success 200 {object} CompetitionResponse
// @Router /competitions/{competition_id} [get]
func (e *CompetitionController) getCompetitionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		competition := e.getCompetition(c)
		if competition == nil {
			return
		}
		c.JSON(200, toCompetitionResponse(competition))
	}
}

// @Description Updates a competition
// @Tags competition
// @Accept json
// @Produce json
// @Param competition_id path int true "Competition Id"
// @Param competition body CompetitionUpdate true "Competition to update"
// @Success 200 {object} CompetitionResponse
// @Router /competitions/{competition_id} [patch]
func (e *CompetitionController) updateCompetitionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		competition := e.getCompetition(c)
		if competition == nil {
			return
		}
		var update CompetitionUpdate
		if err := c.BindJSON(&update); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		update.applyTo(competition)
		saved, err := e.competitionService.SaveCompetition(competition)
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, toCompetitionResponse(saved))
	}
}

// @Description Deletes a competition and its standings
// @Tags competition
// @Param competition_id path int true "Competition Id"
// @Success 204
// @Router /competitions/{competition_id} [delete]
func (e *CompetitionController) deleteCompetitionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		competition := e.getCompetition(c)
		if competition == nil {
			return
		}
		if err := e.competitionService.DeleteCompetition(competition.Id); err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(204, nil)
	}
}

// @Description Fetches the stored standings of a competition in rank order
// @Tags competition
// @Produce json
// @Param competition_id path int true "Competition Id"
// @Success 200 {array} StandingResponse
// @Router /competitions/{competition_id}/leaderboard [get]
func (e *CompetitionController) getLeaderboardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		competition := e.getCompetition(c)
		if competition == nil {
			return
		}
		standings, err := e.standingService.GetStandings(competition.Id)
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, utils.Map(standings, toStandingResponse))
	}
}

// @Description Registers the authenticated user for a competition
// @Tags competition
// @Param competition_id path int true "Competition Id"
// @Success 201
// @Router /competitions/{competition_id}/register [post]
func (e *CompetitionController) registerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		competition := e.getCompetition(c)
		if competition == nil {
			return
		}
		user, err := e.userService.GetUserFromToken(mustCookie(c, "auth"))
		if err != nil {
			c.JSON(401, gin.H{"error": "Unauthenticated"})
			return
		}
		created, err := e.competitionService.RegisterUser(competition.Id, user)
		if err != nil {
			app_error.WithHTTPStatus(c, err, 400)
			return
		}
		if !created {
			c.JSON(200, gin.H{"registered": true, "created": false})
			return
		}
		c.JSON(201, gin.H{"registered": true, "created": true})
	}
}

// @Description Triggers an immediate leaderboard sync for a competition
// @Tags competition
// @Produce json
// @Param competition_id path int true "Competition Id"
// @Success 200 {object} service.SyncSummary
// @Router /competitions/{competition_id}/sync [post]
func (e *CompetitionController) syncHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		competition := e.getCompetition(c)
		if competition == nil {
			return
		}
		summary, err := e.standingService.SyncCompetition(c.Request.Context(), competition)
		if err != nil {
			c.JSON(502, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, summary)
	}
}

func mustCookie(c *gin.Context, name string) string {
	value, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return value
}

type CompetitionCreate struct {
	Title                 string    `json:"title" binding:"required"`
	Description           string    `json:"description"`
	PlatformSlug          string    `json:"platform_slug" binding:"required"`
	PlatformURL           string    `json:"platform_url"`
	EventId               *int      `json:"event_id"`
	StartDate             time.Time `json:"start_date" binding:"required"`
	EndDate               time.Time `json:"end_date" binding:"required"`
	HigherIsBetter        bool      `json:"higher_is_better"`
	MetricMin             float64   `json:"metric_min"`
	MetricMax             float64   `json:"metric_max"`
	PointsForPerfectScore float64   `json:"points_for_perfect_score"`
	EvaluationMetric      string    `json:"evaluation_metric"`
	RatingWeight          float64   `json:"rating_weight"`
	MaxSubmissionsPerDay  int       `json:"max_submissions_per_day"`
}

type CompetitionUpdate struct {
	Title                 *string    `json:"title"`
	Description           *string    `json:"description"`
	PlatformURL           *string    `json:"platform_url"`
	EventId               *int       `json:"event_id"`
	StartDate             *time.Time `json:"start_date"`
	EndDate               *time.Time `json:"end_date"`
	HigherIsBetter        *bool      `json:"higher_is_better"`
	MetricMin             *float64   `json:"metric_min"`
	MetricMax             *float64   `json:"metric_max"`
	PointsForPerfectScore *float64   `json:"points_for_perfect_score"`
	EvaluationMetric      *string    `json:"evaluation_metric"`
	RatingWeight          *float64   `json:"rating_weight"`
	MaxSubmissionsPerDay  *int       `json:"max_submissions_per_day"`
}

type CompetitionResponse struct {
	Id                    int        `json:"id"`
	Title                 string     `json:"title"`
	Description           string     `json:"description"`
	PlatformSlug          string     `json:"platform_slug"`
	PlatformURL           string     `json:"platform_url"`
	EventId               *int       `json:"event_id"`
	StartDate             time.Time  `json:"start_date"`
	EndDate               time.Time  `json:"end_date"`
	Status                string     `json:"status"`
	HigherIsBetter        bool       `json:"higher_is_better"`
	MetricMin             float64    `json:"metric_min"`
	MetricMax             float64    `json:"metric_max"`
	PointsForPerfectScore float64    `json:"points_for_perfect_score"`
	EvaluationMetric      string     `json:"evaluation_metric"`
	RatingWeight          float64    `json:"rating_weight"`
	MaxSubmissionsPerDay  int        `json:"max_submissions_per_day"`
	ParticipantsCount     int        `json:"participants_count"`
	RatingsAppliedAt      *time.Time `json:"ratings_applied_at"`
}

type StandingResponse struct {
	UserId      *int       `json:"user_id"`
	TeamName    string     `json:"team_name"`
	Score       float64    `json:"score"`
	Rank        int        `json:"rank"`
	SubmittedAt *time.Time `json:"submitted_at"`
}

func (e *CompetitionCreate) toModel() *repository.Competition {
	competition := &repository.Competition{
		Title:                 e.Title,
		Description:           e.Description,
		PlatformSlug:          e.PlatformSlug,
		PlatformURL:           e.PlatformURL,
		EventId:               e.EventId,
		StartDate:             e.StartDate,
		EndDate:               e.EndDate,
		HigherIsBetter:        e.HigherIsBetter,
		MetricMin:             e.MetricMin,
		MetricMax:             e.MetricMax,
		PointsForPerfectScore: e.PointsForPerfectScore,
		EvaluationMetric:      e.EvaluationMetric,
		RatingWeight:          e.RatingWeight,
		MaxSubmissionsPerDay:  e.MaxSubmissionsPerDay,
	}
	if competition.PointsForPerfectScore == 0 {
		competition.PointsForPerfectScore = 100
	}
	if competition.RatingWeight == 0 {
		competition.RatingWeight = 1
	}
	if competition.MaxSubmissionsPerDay == 0 {
		competition.MaxSubmissionsPerDay = 5
	}
	return competition
}

func (e *CompetitionUpdate) applyTo(competition *repository.Competition) {
	if e.Title != nil {
		competition.Title = *e.Title
	}
	if e.Description != nil {
		competition.Description = *e.Description
	}
	if e.PlatformURL != nil {
		competition.PlatformURL = *e.PlatformURL
	}
	if e.EventId != nil {
		competition.EventId = e.EventId
	}
	if e.StartDate != nil {
		competition.StartDate = *e.StartDate
	}
	if e.EndDate != nil {
		competition.EndDate = *e.EndDate
	}
	if e.HigherIsBetter != nil {
		competition.HigherIsBetter = *e.HigherIsBetter
	}
	if e.MetricMin != nil {
		competition.MetricMin = *e.MetricMin
	}
	if e.MetricMax != nil {
		competition.MetricMax = *e.MetricMax
	}
	if e.PointsForPerfectScore != nil {
		competition.PointsForPerfectScore = *e.PointsForPerfectScore
	}
	if e.EvaluationMetric != nil {
		competition.EvaluationMetric = *e.EvaluationMetric
	}
	if e.RatingWeight != nil {
		competition.RatingWeight = *e.RatingWeight
	}
	if e.MaxSubmissionsPerDay != nil {
		competition.MaxSubmissionsPerDay = *e.MaxSubmissionsPerDay
	}
}

func toCompetitionResponse(competition *repository.Competition) *CompetitionResponse {
	return &CompetitionResponse{
		Id:                    competition.Id,
		Title:                 competition.Title,
		Description:           competition.Description,
		PlatformSlug:          competition.PlatformSlug,
		PlatformURL:           competition.PlatformURL,
		EventId:               competition.EventId,
		StartDate:             competition.StartDate,
		EndDate:               competition.EndDate,
		Status:                string(competition.Status),
		HigherIsBetter:        competition.HigherIsBetter,
		MetricMin:             competition.MetricMin,
		MetricMax:             competition.MetricMax,
		PointsForPerfectScore: competition.PointsForPerfectScore,
		EvaluationMetric:      competition.EvaluationMetric,
		RatingWeight:          competition.RatingWeight,
		MaxSubmissionsPerDay:  competition.MaxSubmissionsPerDay,
		ParticipantsCount:     competition.ParticipantsCount,
		RatingsAppliedAt:      competition.RatingsAppliedAt,
	}
}

func toStandingResponse(standing *repository.Standing) *StandingResponse {
	return &StandingResponse{
		UserId:      standing.UserId,
		TeamName:    standing.TeamName,
		Score:       standing.Score,
		Rank:        standing.Rank,
		SubmittedAt: standing.SubmittedAt,
	}
}
