package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/homevalue/internal/models"
)

func TestSignAndParse(t *testing.T) {
	s := NewTokenSigner([]byte("k"))

	tok, err := s.Sign(models.Session{ID: "sess-1", UserID: "user-1", Email: "alice@x.com"})
	require.NoError(t, err)

	claims, err := s.Parse(tok)
	require.NoError(t, err)
	require.Equal(t, "sess-1", claims.ID)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "alice@x.com", claims.Email)
	require.Nil(t, claims.ExpiresAt)
}

func TestParse_WrongKey(t *testing.T) {
	tok, err := NewTokenSigner([]byte("k1")).Sign(models.Session{ID: "s", UserID: "u"})
	require.NoError(t, err)

	_, err = NewTokenSigner([]byte("k2")).Parse(tok)
	require.Error(t, err)
	require.True(t, errors.Is(err, jwt.ErrSignatureInvalid))
}

func TestParse_Expired(t *testing.T) {
	s := NewTokenSigner([]byte("k"))
	past := time.Now().Add(-time.Minute)

	tok, err := s.Sign(models.Session{ID: "s", UserID: "u", ExpiresAt: &past})
	require.NoError(t, err)

	_, err = s.Parse(tok)
	require.True(t, errors.Is(err, jwt.ErrTokenExpired))

	claims, err := s.ParseIgnoringExpiry(tok)
	require.NoError(t, err)
	require.Equal(t, "s", claims.ID)
}

func TestParse_RejectsOtherAlgorithms(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{ID: "s"},
	})
	raw, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenSigner([]byte("k")).Parse(raw)
	require.Error(t, err)
}

func TestParse_Garbage(t *testing.T) {
	_, err := NewTokenSigner([]byte("k")).Parse("not-a-token")
	require.Error(t, err)
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	require.Empty(t, TokenFromRequest(r))

	r.Header.Set("Cookie", SessionCookieName+"=abc")
	require.Equal(t, "abc", TokenFromRequest(r))
}

func TestUserContext(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	require.False(t, ok)

	ctx := WithUser(context.Background(), models.User{ID: "u1", Name: "Alice"})
	user, ok := UserFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "Alice", user.Name)
}
