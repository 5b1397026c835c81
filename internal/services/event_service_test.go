package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/isdelr/homevalue/internal/models"
)

type recordingNotifier struct {
	mu      sync.Mutex
	perUser map[string][][]byte
}

func (n *recordingNotifier) NotifyUser(userID string, message []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.perUser == nil {
		n.perUser = map[string][][]byte{}
	}
	n.perUser[userID] = append(n.perUser[userID], message)
}

func (n *recordingNotifier) total() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, msgs := range n.perUser {
		total += len(msgs)
	}
	return total
}

func TestEventService_CreateAndList(t *testing.T) {
	db := newTestDB(t)
	s := NewEventService(db, nil)
	ctx := context.Background()

	alice, bob := "alice-id", "bob-id"
	require.NoError(t, s.CreateEvent(ctx, models.EventLoginSuccess, "info", "first", &alice))
	require.NoError(t, s.CreateEvent(ctx, models.EventLoginFailure, "warn", "anonymous", nil))
	require.NoError(t, s.CreateEvent(ctx, models.EventLogout, "info", "second", &alice))
	require.NoError(t, s.CreateEvent(ctx, models.EventLoginSuccess, "info", "bob", &bob))

	events, err := s.GetRecentEventsForUser(ctx, alice, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "second", events[0].Message)
	require.Equal(t, "first", events[1].Message)
	require.NotNil(t, events[0].UserID)
	require.Equal(t, alice, *events[0].UserID)

	limited, err := s.GetRecentEventsForUser(ctx, alice, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)

	none, err := s.GetRecentEventsForUser(ctx, "nobody", 10)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestEventService_Notifies(t *testing.T) {
	db := newTestDB(t)
	n := &recordingNotifier{}
	s := NewEventService(db, n)
	ctx := context.Background()

	alice := "alice-id"
	require.NoError(t, s.CreateEvent(ctx, models.EventLoginSuccess, "info", "hi", &alice))
	require.NoError(t, s.CreateEvent(ctx, models.EventLoginFailure, "warn", "who", nil))

	// Anonymous events are stored but never pushed.
	require.Len(t, n.perUser[alice], 1)
	require.Equal(t, 1, n.total())

	var msg struct {
		Action  string       `json:"action"`
		Payload models.Event `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(n.perUser[alice][0], &msg))
	require.Equal(t, "event", msg.Action)
	require.Equal(t, models.EventLoginSuccess, msg.Payload.Type)
	require.Equal(t, "hi", msg.Payload.Message)
	require.False(t, msg.Payload.CreatedAt.IsZero())

	stored, err := s.GetRecentEventsForUser(ctx, alice, 1)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, msg.Payload.ID, stored[0].ID)
	require.True(t, msg.Payload.CreatedAt.Equal(stored[0].CreatedAt), "pushed %v, stored %v", msg.Payload.CreatedAt, stored[0].CreatedAt)
}
