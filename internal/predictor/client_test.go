package predictor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/isdelr/homevalue/internal/models"
)

func newModelServer(t *testing.T, optionCalls *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/locations", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(optionCalls, 1)
		_ = json.NewEncoder(w).Encode(map[string][]string{"locations": {"whitefield", "hebbal"}})
	})
	mux.HandleFunc("/areas", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string][]string{"area": {"Super built-up  Area", "Plot  Area"}})
	})
	mux.HandleFunc("/availability", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string][]string{"availability": {"Ready To Move"}})
	})
	mux.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var q models.PredictionQuery
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]float64{"price": q.Sqft / 10})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_OptionsAreCached(t *testing.T) {
	var calls int32
	srv := newModelServer(t, &calls)
	c := NewClient(srv.URL, time.Second)
	ctx := context.Background()

	require.NoError(t, c.Warmup(ctx))

	locs, err := c.LocationNames(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"whitefield", "hebbal"}, locs)

	areas, err := c.AreaValues(ctx)
	require.NoError(t, err)
	require.Len(t, areas, 2)

	avail, err := c.AvailabilityValues(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"Ready To Move"}, avail)

	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_PredictPrice(t *testing.T) {
	var calls int32
	srv := newModelServer(t, &calls)
	c := NewClient(srv.URL, time.Second)

	price, err := c.PredictPrice(context.Background(), models.PredictionQuery{
		Location: "whitefield", AreaType: "Plot  Area", Availability: "Ready To Move",
		Sqft: 1200, BHK: 2, Bath: 2,
	})
	require.NoError(t, err)
	require.InDelta(t, 120.0, price, 1e-9)
}

func TestClient_ModelError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, time.Second)

	_, err := c.PredictPrice(context.Background(), models.PredictionQuery{Sqft: 1, BHK: 1, Bath: 1})
	require.ErrorContains(t, err, "503")

	require.Error(t, c.Warmup(context.Background()))
}

func TestClient_MissingPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	_, err := NewClient(srv.URL, time.Second).PredictPrice(context.Background(), models.PredictionQuery{})
	require.ErrorContains(t, err, "no price")
}
