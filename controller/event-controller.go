package controller

import (
	"strconv"
	"time"

	"mlboard/repository"
	"mlboard/scoring"
	"mlboard/service"
	"mlboard/utils"

	"github.com/gin-contrib/cache"
	"github.com/gin-contrib/cache/persistence"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type EventController struct {
	eventService *service.EventService
}

func NewEventController(db *gorm.DB) *EventController {
	return &EventController{
		eventService: service.NewEventService(db),
	}
}

func setupEventController(db *gorm.DB, cacheStore persistence.CacheStore) []RouteInfo {
	e := NewEventController(db)
	basePath := "/events"
	routes := []RouteInfo{
		{Method: "GET", Path: "", HandlerFunc: e.getEventsHandler()},
		{Method: "POST", Path: "", HandlerFunc: e.createEventHandler(), Authenticated: true, RoleRequired: []string{"admin"}},
		{Method: "GET", Path: "/current", HandlerFunc: e.getCurrentEventHandler()},
		{Method: "GET", Path: "/:event_id", HandlerFunc: e.getEventHandler()},
		{Method: "GET", Path: "/:event_id/leaderboard", HandlerFunc: cache.CachePage(cacheStore, 30*time.Second, e.getEventLeaderboardHandler())},
		{Method: "PATCH", Path: "/:event_id", HandlerFunc: e.updateEventHandler(), Authenticated: true, RoleRequired: []string{"admin"}},
		{Method: "DELETE", Path: "/:event_id", HandlerFunc: e.deleteEventHandler(), Authenticated: true, RoleRequired: []string{"admin"}},
	}
	for i, route := range routes {
		routes[i].Path = basePath + route.Path
	}
	return routes
}

// @Description Fetches all events
// @Tags event
// @Produce json
// @Success 200 {array} EventResponse
// @Router /events [get]
func (e *EventController) getEventsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := e.eventService.GetAllEvents()
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, utils.Map(events, toEventResponse))
	}
}

// @Description Fetches the current event
// @Tags event
// @Produce json
// @Success 200 {object} EventResponse
// @Router /events/current [get]
func (e *EventController) getCurrentEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		event, err := e.eventService.GetCurrentEvent()
		if err != nil {
			c.JSON(404, gin.H{"error": "No current event"})
			return
		}
		c.JSON(200, toEventResponse(event))
	}
}

// @Description Creates an event
// @Tags event
// @Accept json
// @Produce json
// @Param event body EventCreate true "Event to create"
// @Success 201 {object} EventResponse
// @Router /events [post]
func (e *EventController) createEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var eventCreate EventCreate
		if err := c.BindJSON(&eventCreate); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		dbevent, err := e.eventService.SaveEvent(eventCreate.toModel())
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(201, toEventResponse(dbevent))
	}
}

// @Description Gets an event by id
// @Tags event
// @Produce json
// @Param event_id path int true "Event Id"
// @Success 200 {object} EventResponse
// @Router /events/{event_id} [get]
func (e *EventController) getEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		event, err := e.eventService.GetEventById(eventId)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(404, gin.H{"error": "Event not found"})
			} else {
				c.JSON(500, gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(200, toEventResponse(event))
	}
}

// @Description Fetches the aggregated leaderboard across all competitions of an event
// @Tags event
// @Produce json
// @Param event_id path int true "Event Id"
// @Success 200 {array} EventRowResponse
// @Router /events/{event_id}/leaderboard [get]
func (e *EventController) getEventLeaderboardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		rows, err := e.eventService.GetEventLeaderboard(eventId)
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, utils.Map(rows, toEventRowResponse))
	}
}

// @Description Updates an event
// @Tags event
// @Accept json
// @Produce json
// @Param event_id path int true "Event Id"
// @Param event body EventUpdate true "Event to update"
// @Success 200 {object} EventResponse
// @Router /events/{event_id} [patch]
func (e *EventController) updateEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		event, err := e.eventService.GetEventById(eventId)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(404, gin.H{"error": "Event not found"})
			} else {
				c.JSON(500, gin.H{"error": err.Error()})
			}
			return
		}
		var update EventUpdate
		if err := c.BindJSON(&update); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		update.applyTo(event)
		dbevent, err := e.eventService.SaveEvent(event)
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.JSON(200, toEventResponse(dbevent))
	}
}

// @Description Deletes an event
// @Tags event
// @Param event_id path int true "Event Id"
// @Success 204
// @Router /events/{event_id} [delete]
func (e *EventController) deleteEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		eventId, err := strconv.Atoi(c.Param("event_id"))
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		err = e.eventService.DeleteEvent(eventId)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(404, gin.H{"error": "Event not found"})
			} else {
				c.JSON(500, gin.H{"error": err.Error()})
			}
			return
		}
		c.JSON(204, nil)
	}
}

type EventCreate struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug" binding:"required"`
	Description string `json:"description"`
	IsCurrent   bool   `json:"is_current"`
}

type EventUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsCurrent   *bool   `json:"is_current"`
}

type EventResponse struct {
	Id           int                    `json:"id"`
	Name         string                 `json:"name"`
	Slug         string                 `json:"slug"`
	Description  string                 `json:"description"`
	IsCurrent    bool                   `json:"is_current"`
	Competitions []*CompetitionResponse `json:"competitions"`
}

type EventRowResponse struct {
	TeamName                 string  `json:"team_name"`
	TotalScore               float64 `json:"total_score"`
	AverageScore             float64 `json:"average_score"`
	CompetitionsParticipated int     `json:"competitions_participated"`
	MissingCompetitions      int     `json:"missing_competitions"`
	Rank                     int     `json:"rank"`
}

func (e *EventCreate) toModel() *repository.Event {
	return &repository.Event{
		Name:        e.Name,
		Slug:        e.Slug,
		Description: e.Description,
		IsCurrent:   e.IsCurrent,
	}
}

func (e *EventUpdate) applyTo(event *repository.Event) {
	if e.Name != nil {
		event.Name = *e.Name
	}
	if e.Description != nil {
		event.Description = *e.Description
	}
	if e.IsCurrent != nil {
		event.IsCurrent = *e.IsCurrent
	}
}

func toEventResponse(event *repository.Event) *EventResponse {
	return &EventResponse{
		Id:           event.Id,
		Name:         event.Name,
		Slug:         event.Slug,
		Description:  event.Description,
		IsCurrent:    event.IsCurrent,
		Competitions: utils.Map(event.Competitions, toCompetitionResponse),
	}
}

func toEventRowResponse(row *scoring.EventRow) *EventRowResponse {
	return &EventRowResponse{
		TeamName:                 row.TeamName,
		TotalScore:               row.TotalScore,
		AverageScore:             row.AverageScore,
		CompetitionsParticipated: row.CompetitionsParticipated,
		MissingCompetitions:      row.MissingCompetitions,
		Rank:                     row.Rank,
	}
}
