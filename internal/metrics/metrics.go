// Package metrics holds the Prometheus collectors shared by the API server and
// the activity worker. All collectors register on the default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FriendRequests counts graph mutations by action (sent, accepted, rejected, cancelled, removed)
	// and outcome (success, failure).
	FriendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_friend_request_actions_total",
			Help: "Total number of friend request and friendship actions",
		},
		[]string{"action", "outcome"},
	)

	// Applications counts opportunity workflow actions (applied, cancelled, transitioned).
	Applications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opportunity_application_actions_total",
			Help: "Total number of application actions",
		},
		[]string{"action", "outcome"},
	)

	// Likes counts like toggles by resulting state.
	Likes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_like_toggles_total",
			Help: "Total number of like toggles",
		},
		[]string{"state"},
	)

	// PresenceWrites counts persisted last-activity updates. Debounced touches are not counted.
	PresenceWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "presence_last_activity_writes_total",
			Help: "Total number of persisted last-activity updates",
		},
	)

	// EventsPublished counts activity events handed to the broker, by type and outcome.
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_events_published_total",
			Help: "Total number of activity events published",
		},
		[]string{"type", "outcome"},
	)

	// EventsConsumed counts activity events processed by the worker.
	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_events_consumed_total",
			Help: "Total number of activity events consumed",
		},
		[]string{"type", "outcome"},
	)

	// HTTPRequestDuration tracks API latency per route template.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Time spent serving HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "code"},
	)
)

// Outcome maps an error to the outcome label.
func Outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
