// Package predictor is the HTTP client for the external house-price model.
//
// The model service exposes the option lists it was trained on and a single
// prediction call:
//
//	GET  /locations     -> {"locations": [...]}
//	GET  /areas         -> {"area": [...]}
//	GET  /availability  -> {"availability": [...]}
//	POST /predict       -> {"price": 85.42}
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/homevalue/internal/models"
)

// Predictor is the contract of the external model.
type Predictor interface {
	LocationNames(ctx context.Context) ([]string, error)
	AreaValues(ctx context.Context) ([]string, error)
	AvailabilityValues(ctx context.Context) ([]string, error)
	PredictPrice(ctx context.Context, q models.PredictionQuery) (float64, error)
}

// Options are the categorical values the model accepts.
type Options struct {
	Locations    []string `json:"locations"`
	Areas        []string `json:"area"`
	Availability []string `json:"availability"`
}

// Client talks to the model service and caches its option lists, which do
// not change while the model is loaded.
type Client struct {
	baseURL string
	http    *http.Client

	mu      sync.RWMutex
	options *Options
}

// NewClient creates a client for the model service at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Warmup loads the option lists. Failure is not fatal; the lists are
// fetched again on first use.
func (c *Client) Warmup(ctx context.Context) error {
	_, err := c.loadOptions(ctx)
	return err
}

func (c *Client) LocationNames(ctx context.Context) ([]string, error) {
	opts, err := c.loadOptions(ctx)
	if err != nil {
		return nil, err
	}
	return opts.Locations, nil
}

func (c *Client) AreaValues(ctx context.Context) ([]string, error) {
	opts, err := c.loadOptions(ctx)
	if err != nil {
		return nil, err
	}
	return opts.Areas, nil
}

func (c *Client) AvailabilityValues(ctx context.Context) ([]string, error) {
	opts, err := c.loadOptions(ctx)
	if err != nil {
		return nil, err
	}
	return opts.Availability, nil
}

// PredictPrice asks the model for a price in lakhs.
func (c *Client) PredictPrice(ctx context.Context, q models.PredictionQuery) (float64, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return 0, err
	}
	var out struct {
		Price *float64 `json:"price"`
	}
	if err := c.do(ctx, http.MethodPost, "/predict", bytes.NewReader(body), &out); err != nil {
		return 0, err
	}
	if out.Price == nil {
		return 0, fmt.Errorf("model response has no price")
	}
	return *out.Price, nil
}

func (c *Client) loadOptions(ctx context.Context) (*Options, error) {
	c.mu.RLock()
	opts := c.options
	c.mu.RUnlock()
	if opts != nil {
		return opts, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.options != nil {
		return c.options, nil
	}

	loaded := &Options{}
	var locations, areas, availability Options
	if err := c.do(ctx, http.MethodGet, "/locations", nil, &locations); err != nil {
		return nil, err
	}
	if err := c.do(ctx, http.MethodGet, "/areas", nil, &areas); err != nil {
		return nil, err
	}
	if err := c.do(ctx, http.MethodGet, "/availability", nil, &availability); err != nil {
		return nil, err
	}
	loaded.Locations = locations.Locations
	loaded.Areas = areas.Areas
	loaded.Availability = availability.Availability

	c.options = loaded
	log.Info().
		Int("locations", len(loaded.Locations)).
		Int("areas", len(loaded.Areas)).
		Int("availability", len(loaded.Availability)).
		Msg("Loaded model options")
	return loaded, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: model returned %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
