package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/isdelr/homevalue/internal/models"
)

// bcrypt ignores everything past 72 bytes; longer passwords are rejected
// rather than silently truncated.
const maxPasswordBytes = 72

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	CreateUser(ctx context.Context, name, email, password, phoneNumber string) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	AuthenticateUser(ctx context.Context, email, password string) (models.User, error)
}

// UserService is the credential store: user records keyed by unique email.
type UserService struct {
	db        *sql.DB
	cost      int
	dummyHash []byte
}

// NewUserService creates a new UserService hashing with the given bcrypt cost.
func NewUserService(db *sql.DB, cost int) *UserService {
	// Compared against when the email is unknown so that both failure paths
	// spend the same time in bcrypt.
	dummy, _ := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), cost)
	return &UserService{db: db, cost: cost, dummyHash: dummy}
}

// CreateUser validates the input, hashes the password and inserts the record.
// The existence check and the insert are a single statement, so two
// concurrent registrations for one email cannot both succeed.
func (s *UserService) CreateUser(ctx context.Context, name, email, password, phoneNumber string) (models.User, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return models.User{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	case email == "":
		return models.User{}, fmt.Errorf("%w: email is required", ErrInvalidInput)
	case password == "":
		return models.User{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	case len(password) > maxPasswordBytes:
		return models.User{}, fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, maxPasswordBytes)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		PhoneNumber:  phoneNumber,
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, phone_number) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(email) DO NOTHING`,
		user.ID, user.Name, user.Email, user.PasswordHash, user.PhoneNumber)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	if n == 0 {
		return models.User{}, ErrDuplicateEmail
	}

	created, err := s.GetUserByID(ctx, user.ID)
	if err != nil {
		return models.User{}, err
	}
	return created, nil
}

// GetUserByID retrieves a single user by their ID, without the password hash.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, phone_number, created_at FROM users WHERE id = ?", id)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PhoneNumber, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return user, nil
}

// GetUserByEmail retrieves a single user by exact email, including the password hash.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, password_hash, phone_number, created_at FROM users WHERE email = ?", email)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.PhoneNumber, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// AuthenticateUser verifies a user's credentials. Unknown email and wrong
// password both yield ErrAuthFailure.
func (s *UserService) AuthenticateUser(ctx context.Context, email, password string) (models.User, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return models.User{}, ErrAuthFailure
		}
		return models.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrAuthFailure
	}

	// Don't hand the password hash to callers
	user.PasswordHash = ""
	return user, nil
}
