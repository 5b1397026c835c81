package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/isdelr/homevalue/internal/models"
)

// SessionCookieName is the cookie carrying the signed session reference.
const SessionCookieName = "hv_session"

// Claims defines the session token claims. The registered ID (jti) is the
// server-side session ID and Subject is the user ID.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenSigner issues and verifies HS256 session tokens.
type TokenSigner struct {
	key []byte
}

// NewTokenSigner creates a signer for the given secret.
func NewTokenSigner(secret []byte) *TokenSigner {
	return &TokenSigner{key: secret}
}

// Sign creates a token for the session. A nil ExpiresAt yields a token
// without an exp claim.
func (s *TokenSigner) Sign(session models.Session) (string, error) {
	claims := &Claims{
		Email: session.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       session.ID,
			Subject:  session.UserID,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}
	if session.ExpiresAt != nil {
		claims.ExpiresAt = jwt.NewNumericDate(*session.ExpiresAt)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.key)
}

// Parse verifies the signature and the time-based claims.
func (s *TokenSigner) Parse(tokenStr string) (*Claims, error) {
	return s.parse(tokenStr)
}

// ParseIgnoringExpiry verifies only the signature. Logout uses it so that an
// expired cookie can still name the session row to delete.
func (s *TokenSigner) ParseIgnoringExpiry(tokenStr string) (*Claims, error) {
	return s.parse(tokenStr, jwt.WithoutClaimsValidation())
}

func (s *TokenSigner) parse(tokenStr string, opts ...jwt.ParserOption) (*Claims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return s.key, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.ID == "" {
		return nil, errors.New("token has no session id")
	}
	return claims, nil
}

// TokenFromRequest returns the session cookie value, or "" when absent.
func TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

type contextKey string

const userKey = contextKey("user")

// WithUser stores the authenticated user in the context.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userKey).(models.User)
	return user, ok
}
