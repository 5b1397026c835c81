package models

import "time"

// Event types recorded by the auth flow.
const (
	EventUserRegister      = "user.register"
	EventLoginSuccess      = "auth.login.success"
	EventLoginFailure      = "auth.login.failure"
	EventLogout            = "auth.logout"
	EventPredictionRequest = "prediction.request"
)

// Event represents a loggable action in the system.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`  // e.g., "auth.login.success"
	Level     string    `json:"level"` // e.g., "info", "warn", "error"
	Message   string    `json:"message"`
	UserID    *string   `json:"userId,omitempty"` // Nullable for anonymous events
	CreatedAt time.Time `json:"createdAt"`
}
