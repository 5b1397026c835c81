package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRender_EscapesAndSetsStatus(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.Render(rec, http.StatusUnauthorized, "login.html", struct {
		Email string
		Error string
	}{Email: `"><script>x</script>`, Error: "Invalid user"})

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	require.Contains(t, body, "Invalid user")
	require.NotContains(t, body, "<script>x</script>")
}

func TestRender_UnknownPage(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.Render(rec, http.StatusOK, "missing.html", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
