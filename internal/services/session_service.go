package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/homevalue/internal/auth"
	"github.com/isdelr/homevalue/internal/models"
)

// SessionServiceProvider defines the interface for the session authenticator.
type SessionServiceProvider interface {
	Login(ctx context.Context, email, password string) (string, models.User, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (models.User, error)
	PruneExpired(ctx context.Context) (int64, error)
}

// SessionService establishes, resolves and destroys server-side sessions.
// A session is a row in the sessions table; the browser holds a signed token
// naming it.
type SessionService struct {
	db     *sql.DB
	users  UserServiceProvider
	events EventServiceProvider
	signer *auth.TokenSigner
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionService creates a new SessionService. A zero ttl means sessions
// live until logout.
func NewSessionService(db *sql.DB, users UserServiceProvider, events EventServiceProvider, signer *auth.TokenSigner, ttl time.Duration) *SessionService {
	return &SessionService{
		db:     db,
		users:  users,
		events: events,
		signer: signer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Login verifies the credentials and opens a session, returning its token.
func (s *SessionService) Login(ctx context.Context, email, password string) (string, models.User, error) {
	user, err := s.users.AuthenticateUser(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrAuthFailure) {
			s.recordEvent(ctx, models.EventLoginFailure, "warn", "Failed login attempt", nil)
		}
		return "", models.User{}, err
	}

	session := models.Session{
		ID:     uuid.New().String(),
		UserID: user.ID,
		Email:  user.Email,
	}
	var expiresAt sql.NullInt64
	if s.ttl > 0 {
		exp := s.now().Add(s.ttl)
		session.ExpiresAt = &exp
		expiresAt = sql.NullInt64{Int64: exp.Unix(), Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO sessions (id, user_id, email, expires_at) VALUES (?, ?, ?, ?)",
		session.ID, session.UserID, session.Email, expiresAt)
	if err != nil {
		return "", models.User{}, fmt.Errorf("failed to create session: %w", err)
	}

	token, err := s.signer.Sign(session)
	if err != nil {
		return "", models.User{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	s.recordEvent(ctx, models.EventLoginSuccess, "info", "Signed in", &user.ID)
	return token, user, nil
}

// Logout deletes the session named by the token. Missing, malformed or
// already revoked tokens are ignored.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.signer.ParseIgnoringExpiry(token)
	if err != nil {
		return nil
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", claims.ID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 && claims.Subject != "" {
		userID := claims.Subject
		s.recordEvent(ctx, models.EventLogout, "info", "Signed out", &userID)
	}
	return nil
}

// CurrentUser resolves a token to its user, or ErrNotAuthenticated.
func (s *SessionService) CurrentUser(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, ErrNotAuthenticated
	}
	claims, err := s.signer.Parse(token)
	if err != nil {
		return models.User{}, ErrNotAuthenticated
	}

	session, err := s.getSession(ctx, claims.ID)
	if err != nil {
		return models.User{}, err
	}
	if session.Expired(s.now()) || session.UserID != claims.Subject {
		return models.User{}, ErrNotAuthenticated
	}

	user, err := s.users.GetUserByEmail(ctx, session.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return models.User{}, ErrNotAuthenticated
		}
		return models.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}

// PruneExpired removes sessions past their expiry and reports how many.
func (s *SessionService) PruneExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at IS NOT NULL AND expires_at <= ?", s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}
	return res.RowsAffected()
}

func (s *SessionService) getSession(ctx context.Context, id string) (models.Session, error) {
	var (
		session   models.Session
		expiresAt sql.NullInt64
	)
	row := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, email, expires_at, created_at FROM sessions WHERE id = ?", id)
	err := row.Scan(&session.ID, &session.UserID, &session.Email, &expiresAt, &session.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, ErrNotAuthenticated
		}
		return models.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	if expiresAt.Valid {
		exp := time.Unix(expiresAt.Int64, 0)
		session.ExpiresAt = &exp
	}
	return session, nil
}

func (s *SessionService) recordEvent(ctx context.Context, eventType, level, message string, userID *string) {
	if s.events == nil {
		return
	}
	if err := s.events.CreateEvent(ctx, eventType, level, message, userID); err != nil {
		log.Warn().Err(err).Str("type", eventType).Msg("Failed to record event")
	}
}
