// Package events defines the activity events emitted after successful graph,
// feed and opportunity mutations, and the publishers that deliver them.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"global-app/internal/kafka"
	"global-app/internal/logger"
	"global-app/internal/metrics"
)

// Type names an activity event.
type Type string

const (
	FriendRequestSent      Type = "friend_request.sent"
	FriendRequestAccepted  Type = "friend_request.accepted"
	FriendRequestRejected  Type = "friend_request.rejected"
	FriendRequestCancelled Type = "friend_request.cancelled"
	FriendshipRemoved      Type = "friendship.removed"

	PostCreated Type = "post.created"
	PostDeleted Type = "post.deleted"

	ApplicationSubmitted     Type = "application.submitted"
	ApplicationCancelled     Type = "application.cancelled"
	ApplicationStatusChanged Type = "application.status_changed"
)

// Event is the JSON payload written to the activity topic.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	ActorID    uint      `json:"actor_id"`
	TargetID   uint      `json:"target_id,omitempty"`   // the other user, when there is one
	ResourceID uint      `json:"resource_id,omitempty"` // request, post or application id
	Status     string    `json:"status,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New builds an event with a fresh id.
func New(t Type, actorID, targetID, resourceID uint) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		ActorID:    actorID,
		TargetID:   targetID,
		ResourceID: resourceID,
		OccurredAt: time.Now().UTC(),
	}
}

// WithStatus returns a copy of e carrying status.
func (e Event) WithStatus(status string) Event {
	e.Status = status
	return e
}

// Decode parses a payload produced by KafkaPublisher.
func Decode(payload []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(payload, &e); err != nil {
		return Event{}, fmt.Errorf("decode activity event: %w", err)
	}
	if e.Type == "" {
		return Event{}, fmt.Errorf("decode activity event: missing type")
	}
	return e, nil
}

// Publisher delivers activity events. Callers publish after their transaction
// commits and treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Emit publishes e and logs a failure instead of returning it.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		logger.L().Warn("activity event not published",
			zap.String("type", string(e.Type)),
			zap.Uint("actor_id", e.ActorID),
			zap.Error(err))
	}
}

// KafkaPublisher writes events as JSON to one topic keyed by actor id, so one
// user's events stay ordered within a partition. Publish only enqueues; the
// delivery outcome is counted and failures logged when the broker reports it.
type KafkaPublisher struct {
	producer kafka.MessageProducer
	topic    string
	log      *zap.Logger
}

// NewKafkaPublisher wraps producer. log may be nil.
func NewKafkaPublisher(producer kafka.MessageProducer, topic string, log *zap.Logger) *KafkaPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &KafkaPublisher{producer: producer, topic: topic, log: log.Named("events")}
}

func (p *KafkaPublisher) Publish(_ context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode activity event: %w", err)
	}
	key := []byte(strconv.FormatUint(uint64(e.ActorID), 10))
	if err := p.producer.Produce(p.topic, key, payload, func(err error) { p.delivered(e, err) }); err != nil {
		metrics.EventsPublished.WithLabelValues(string(e.Type), metrics.Outcome(err)).Inc()
		return err
	}
	return nil
}

func (p *KafkaPublisher) delivered(e Event, err error) {
	metrics.EventsPublished.WithLabelValues(string(e.Type), metrics.Outcome(err)).Inc()
	if err != nil {
		p.log.Warn("activity event not delivered",
			zap.String("event_id", e.ID),
			zap.String("type", string(e.Type)),
			zap.Error(err))
	}
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the type of every published event in order.
func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]Type, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}
