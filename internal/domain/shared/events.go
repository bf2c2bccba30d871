package shared

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened in the ledger.
const (
	// Completion events
	EventCompletionRecorded EventType = "completion.recorded"
	EventCompletionReplayed EventType = "completion.replayed"

	// Streak events
	EventStreakExtended EventType = "streak.extended"
	EventStreakReset    EventType = "streak.reset"

	// Leaderboard events
	EventLeaderboardRefreshed EventType = "leaderboard.refreshed"
	EventPointsBackfilled     EventType = "leaderboard.points_backfilled"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	ID            string    `json:"id"`
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// CompletionRecordedEvent is emitted when a day's completion commits for
// the first time. Duplicate requests never emit it.
type CompletionRecordedEvent struct {
	BaseEvent
	DateKey       string `json:"date_key"`
	PointsAwarded int64  `json:"points_awarded"`
	TotalPoints   int64  `json:"total_points"`
	StreakDays    int    `json:"streak_days"`
}

// Payload implements Event interface.
func (e CompletionRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"date_key":       e.DateKey,
		"points_awarded": e.PointsAwarded,
		"total_points":   e.TotalPoints,
		"streak_days":    e.StreakDays,
	}
}

// NewCompletionRecordedEvent creates a new CompletionRecordedEvent.
func NewCompletionRecordedEvent(playerID, dateKey string, pointsAwarded, totalPoints int64, streakDays int) CompletionRecordedEvent {
	return CompletionRecordedEvent{
		BaseEvent:     NewBaseEvent(EventCompletionRecorded, playerID),
		DateKey:       dateKey,
		PointsAwarded: pointsAwarded,
		TotalPoints:   totalPoints,
		StreakDays:    streakDays,
	}
}

// CompletionReplayedEvent is emitted when a submission names a day that
// was already recorded. Nothing changed; the event exists for tracing
// retry behaviour.
type CompletionReplayedEvent struct {
	BaseEvent
	DateKey string `json:"date_key"`
}

// Payload implements Event interface.
func (e CompletionReplayedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"date_key": e.DateKey,
	}
}

// NewCompletionReplayedEvent creates a new CompletionReplayedEvent.
func NewCompletionReplayedEvent(playerID, dateKey string) CompletionReplayedEvent {
	return CompletionReplayedEvent{
		BaseEvent: NewBaseEvent(EventCompletionReplayed, playerID),
		DateKey:   dateKey,
	}
}

// StreakExtendedEvent is emitted when a completion continues a streak.
type StreakExtendedEvent struct {
	BaseEvent
	StreakDays int    `json:"streak_days"`
	DateKey    string `json:"date_key"`
}

// Payload implements Event interface.
func (e StreakExtendedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"streak_days": e.StreakDays,
		"date_key":    e.DateKey,
	}
}

// NewStreakExtendedEvent creates a new StreakExtendedEvent.
func NewStreakExtendedEvent(playerID, dateKey string, streakDays int) StreakExtendedEvent {
	return StreakExtendedEvent{
		BaseEvent:  NewBaseEvent(EventStreakExtended, playerID),
		StreakDays: streakDays,
		DateKey:    dateKey,
	}
}

// StreakResetEvent is emitted when a completion starts a new streak after
// a gap (or for a brand-new player).
type StreakResetEvent struct {
	BaseEvent
	PreviousStreak int    `json:"previous_streak"`
	DateKey        string `json:"date_key"`
}

// Payload implements Event interface.
func (e StreakResetEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"previous_streak": e.PreviousStreak,
		"date_key":        e.DateKey,
	}
}

// NewStreakResetEvent creates a new StreakResetEvent.
func NewStreakResetEvent(playerID, dateKey string, previousStreak int) StreakResetEvent {
	return StreakResetEvent{
		BaseEvent:      NewBaseEvent(EventStreakReset, playerID),
		PreviousStreak: previousStreak,
		DateKey:        dateKey,
	}
}

// LeaderboardRefreshedEvent is emitted after a leaderboard scan completes.
type LeaderboardRefreshedEvent struct {
	BaseEvent
	PlayersScanned int `json:"players_scanned"`
	EntriesServed  int `json:"entries_served"`
}

// Payload implements Event interface.
func (e LeaderboardRefreshedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"players_scanned": e.PlayersScanned,
		"entries_served":  e.EntriesServed,
	}
}

// NewLeaderboardRefreshedEvent creates a new LeaderboardRefreshedEvent.
func NewLeaderboardRefreshedEvent(playersScanned, entriesServed int) LeaderboardRefreshedEvent {
	return LeaderboardRefreshedEvent{
		BaseEvent:      NewBaseEvent(EventLeaderboardRefreshed, "leaderboard"),
		PlayersScanned: playersScanned,
		EntriesServed:  entriesServed,
	}
}

// PointsBackfilledEvent is emitted when the aggregator repairs a canonical
// total from the legacy wallet field.
type PointsBackfilledEvent struct {
	BaseEvent
	TotalPoints int64 `json:"total_points"`
}

// Payload implements Event interface.
func (e PointsBackfilledEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"total_points": e.TotalPoints,
	}
}

// NewPointsBackfilledEvent creates a new PointsBackfilledEvent.
func NewPointsBackfilledEvent(playerID string, totalPoints int64) PointsBackfilledEvent {
	return PointsBackfilledEvent{
		BaseEvent:   NewBaseEvent(EventPointsBackfilled, playerID),
		TotalPoints: totalPoints,
	}
}

// EventHandler processes a single event.
type EventHandler func(event Event) error

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(event Event) error
}

// EventSubscriber subscribes handlers to event types.
type EventSubscriber interface {
	Subscribe(eventType EventType, handler EventHandler) error
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
}
