package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/homevalue/internal/models"
)

// Notifier pushes serialized events to a user's live connections.
type Notifier interface {
	NotifyUser(userID string, message []byte)
}

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, eventType, level, message string, userID *string) error
	GetRecentEventsForUser(ctx context.Context, userID string, limit int) ([]models.Event, error)
}

// EventService records auth activity and forwards it to the notifier.
type EventService struct {
	db       *sql.DB
	notifier Notifier
}

// NewEventService creates a new EventService. notifier may be nil.
func NewEventService(db *sql.DB, notifier Notifier) *EventService {
	return &EventService{db: db, notifier: notifier}
}

// CreateEvent logs a new event to the database. Events owned by a user are
// also pushed to that user's connections; anonymous events are only stored.
func (s *EventService) CreateEvent(ctx context.Context, eventType, level, message string, userID *string) error {
	event := models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Level:     level,
		Message:   message,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (id, type, level, message, user_id, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		event.ID, event.Type, event.Level, event.Message, event.UserID, event.CreatedAt)
	if err != nil {
		return err
	}

	s.notify(event)
	return nil
}

func (s *EventService) notify(event models.Event) {
	if s.notifier == nil || event.UserID == nil {
		return
	}
	payload, err := json.Marshal(map[string]interface{}{"action": "event", "payload": event})
	if err != nil {
		log.Error().Err(err).Str("event_id", event.ID).Msg("Failed to encode event for subscribers")
		return
	}
	s.notifier.NotifyUser(*event.UserID, payload)
}

// GetRecentEventsForUser retrieves the user's most recent events, newest first.
func (s *EventService) GetRecentEventsForUser(ctx context.Context, userID string, limit int) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, level, message, user_id, created_at FROM events
		 WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &event.UserID, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
