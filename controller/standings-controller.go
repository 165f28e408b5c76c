package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"

	"mlboard/config"
	"mlboard/metrics"
	"mlboard/service"
	"mlboard/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

// StandingsController pushes standings updates to websocket subscribers. One
// kafka consumer per event fans messages out to every open connection for
// that event.
type StandingsController struct {
	eventService *service.EventService

	mu          sync.Mutex
	connections map[int]map[*websocket.Conn]bool
	consumers   map[int]bool
}

func NewStandingsController(db *gorm.DB) *StandingsController {
	return &StandingsController{
		eventService: service.NewEventService(db),
		connections:  make(map[int]map[*websocket.Conn]bool),
		consumers:    make(map[int]bool),
	}
}

func setupStandingsController(db *gorm.DB) []RouteInfo {
	e := NewStandingsController(db)
	return []RouteInfo{
		{Method: "GET", Path: "/events/:event_id/standings/ws", HandlerFunc: e.WebSocketHandler},
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// allow any host origin to connect to the websocket
		return true
	},
}

// @id StandingsWebSocket
// @Description Websocket for standings updates. On connect the client receives the current event leaderboard, then a message after every sync.
// @Tags standings
// @Param event_id path int true "Event Id"
// @Success 200 {object} service.StandingsUpdate
// @Router /events/{event_id}/standings/ws [get]
func (e *StandingsController) WebSocketHandler(c *gin.Context) {
	eventId, err := strconv.Atoi(c.Param("event_id"))
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		http.NotFound(c.Writer, c.Request)
		return
	}
	defer conn.Close()

	// send the current leaderboard to the new subscriber
	rows, err := e.eventService.GetEventLeaderboard(eventId)
	if err == nil {
		serialized, err := json.Marshal(utils.Map(rows, toEventRowResponse))
		if err == nil {
			if err := conn.WriteMessage(websocket.TextMessage, serialized); err != nil {
				return
			}
		}
	}

	e.mu.Lock()
	if _, ok := e.connections[eventId]; !ok {
		e.connections[eventId] = make(map[*websocket.Conn]bool)
	}
	e.connections[eventId][conn] = true
	if !e.consumers[eventId] {
		e.consumers[eventId] = true
		go e.consumeUpdates(eventId)
	}
	e.mu.Unlock()
	metrics.WebsocketConnectionGauge.WithLabelValues(fmt.Sprintf("%d", eventId)).Inc()

	for {
		_, _, err := conn.ReadMessage()
		if err != nil {
			e.mu.Lock()
			delete(e.connections[eventId], conn)
			if len(e.connections[eventId]) == 0 {
				delete(e.connections, eventId)
			}
			e.mu.Unlock()
			metrics.WebsocketConnectionGauge.WithLabelValues(fmt.Sprintf("%d", eventId)).Dec()
			return
		}
	}
}

func (e *StandingsController) consumeUpdates(eventId int) {
	reader, err := config.GetReader(eventId, os.Getpid())
	if err != nil {
		log.Printf("failed to create standings reader for event %d: %v", eventId, err)
		e.mu.Lock()
		e.consumers[eventId] = false
		e.mu.Unlock()
		return
	}
	defer utils.Closer(reader)()

	for {
		message, err := reader.ReadMessage(context.Background())
		if err != nil {
			log.Printf("standings reader for event %d stopped: %v", eventId, err)
			e.mu.Lock()
			e.consumers[eventId] = false
			e.mu.Unlock()
			return
		}
		e.mu.Lock()
		for conn := range e.connections[eventId] {
			if err := conn.WriteMessage(websocket.TextMessage, message.Value); err != nil {
				conn.Close()
				delete(e.connections[eventId], conn)
			}
		}
		e.mu.Unlock()
	}
}
