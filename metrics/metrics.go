package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var PlatformRequestCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "platform_request_total",
	Help: "The total number of requests by endpoint to the competition platform API",
}, []string{"endpoint"})

var PlatformResponseCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "platform_response_total",
	Help: "The total number of responses by status code from the competition platform API",
}, []string{"status_code"})

var PlatformRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name: "platform_request_duration_seconds",
	Help: "Duration of requests to the competition platform API",
}, []string{"endpoint"})

var SyncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "leaderboard_sync_runs_total",
	Help: "The number of leaderboard sync runs by outcome",
}, []string{"outcome"})

var SyncedRowsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "leaderboard_synced_rows_total",
	Help: "The total number of leaderboard rows ingested",
})

var SkippedRowsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "leaderboard_skipped_rows_total",
	Help: "The total number of leaderboard rows skipped during parsing",
})

var RatingUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "rating_updates_total",
	Help: "The number of user rating updates applied",
})

var WebsocketConnectionGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "standings_websocket_connections",
	Help: "Current number of open standings websocket connections per event",
}, []string{"event_id"})
