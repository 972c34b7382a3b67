// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// AuthEvents counts signup/login/logout outcomes.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_auth_events_total",
		Help: "Authentication events by outcome",
	}, []string{"event"})

	// SocialActions counts follow/unfollow/like/unlike/comment mutations.
	SocialActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_social_actions_total",
		Help: "Social graph and engagement mutations by action",
	}, []string{"action"})

	// NotificationsPublished counts notifications pushed to the realtime channel.
	NotificationsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_notifications_published_total",
		Help: "Notifications published to realtime subscribers by type",
	}, []string{"type"})

	// RedisCommands counts Redis commands by status.
	RedisCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_redis_commands_total",
		Help: "Redis commands executed, labelled ok or error",
	}, []string{"status"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "murmur_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// WebSocketConnections is the gauge of open notification sockets.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "murmur_ws_connections",
		Help: "Number of active notification WebSocket connections",
	})
)

const queryStartKey = "murmur:query_start"

// RegisterQueryMetrics installs GORM callbacks that observe query latency
// into DatabaseQueryLatency.
func RegisterQueryMetrics(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "unknown"
			}
			DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
		}
	}

	cb := db.Callback()
	registrations := []error{
		cb.Create().Before("gorm:create").Register("metrics:before_create", before),
		cb.Create().After("gorm:create").Register("metrics:after_create", after("create")),
		cb.Query().Before("gorm:query").Register("metrics:before_query", before),
		cb.Query().After("gorm:query").Register("metrics:after_query", after("query")),
		cb.Update().Before("gorm:update").Register("metrics:before_update", before),
		cb.Update().After("gorm:update").Register("metrics:after_update", after("update")),
		cb.Delete().Before("gorm:delete").Register("metrics:before_delete", before),
		cb.Delete().After("gorm:delete").Register("metrics:after_delete", after("delete")),
		cb.Raw().Before("gorm:raw").Register("metrics:before_raw", before),
		cb.Raw().After("gorm:raw").Register("metrics:after_raw", after("raw")),
	}
	for _, err := range registrations {
		if err != nil {
			return err
		}
	}
	return nil
}
