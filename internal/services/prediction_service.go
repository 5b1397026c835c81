package services

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/isdelr/homevalue/internal/models"
	"github.com/isdelr/homevalue/internal/predictor"
)

// PredictionServiceProvider defines the interface for the prediction form flow.
type PredictionServiceProvider interface {
	Options(ctx context.Context) (predictor.Options, error)
	Predict(ctx context.Context, form url.Values) (models.Prediction, error)
}

// PredictionService validates the prediction form and formats the model's answer.
type PredictionService struct {
	model predictor.Predictor
}

// NewPredictionService creates a new PredictionService.
func NewPredictionService(model predictor.Predictor) *PredictionService {
	return &PredictionService{model: model}
}

// Options returns the categorical values accepted by the model.
func (s *PredictionService) Options(ctx context.Context) (predictor.Options, error) {
	var opts predictor.Options
	var err error
	if opts.Locations, err = s.model.LocationNames(ctx); err != nil {
		return predictor.Options{}, fmt.Errorf("%w: %v", ErrPredictionUnavailable, err)
	}
	if opts.Areas, err = s.model.AreaValues(ctx); err != nil {
		return predictor.Options{}, fmt.Errorf("%w: %v", ErrPredictionUnavailable, err)
	}
	if opts.Availability, err = s.model.AvailabilityValues(ctx); err != nil {
		return predictor.Options{}, fmt.Errorf("%w: %v", ErrPredictionUnavailable, err)
	}
	return opts, nil
}

// Predict parses the form fields sqft, bhk, bath, loc, area and avail, asks
// the model and rounds the price to two decimals.
func (s *PredictionService) Predict(ctx context.Context, form url.Values) (models.Prediction, error) {
	q, err := ParsePredictionForm(form)
	if err != nil {
		return models.Prediction{}, err
	}

	price, err := s.model.PredictPrice(ctx, q)
	if err != nil {
		return models.Prediction{}, fmt.Errorf("%w: %v", ErrPredictionUnavailable, err)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return models.Prediction{}, fmt.Errorf("%w: model returned %v", ErrPredictionUnavailable, price)
	}

	rounded := math.Round(price*100) / 100
	return models.Prediction{
		Query: q,
		Price: rounded,
		Text:  fmt.Sprintf("The house price is Rs. %s lakhs", formatPrice(rounded)),
	}, nil
}

// formatPrice prints the shortest decimal form, keeping one fractional
// digit on whole values: 85 -> "85.0", 85.5 -> "85.5".
func formatPrice(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ParsePredictionForm converts the submitted form into a query.
func ParsePredictionForm(form url.Values) (models.PredictionQuery, error) {
	sqft, err := strconv.ParseFloat(strings.TrimSpace(form.Get("sqft")), 64)
	if err != nil || sqft <= 0 || math.IsInf(sqft, 0) || math.IsNaN(sqft) {
		return models.PredictionQuery{}, fmt.Errorf("%w: sqft must be a positive number", ErrInvalidInput)
	}
	bhk, err := strconv.Atoi(strings.TrimSpace(form.Get("bhk")))
	if err != nil || bhk <= 0 {
		return models.PredictionQuery{}, fmt.Errorf("%w: bhk must be a positive whole number", ErrInvalidInput)
	}
	bath, err := strconv.Atoi(strings.TrimSpace(form.Get("bath")))
	if err != nil || bath <= 0 {
		return models.PredictionQuery{}, fmt.Errorf("%w: bath must be a positive whole number", ErrInvalidInput)
	}

	return models.PredictionQuery{
		Location:     form.Get("loc"),
		AreaType:     form.Get("area"),
		Availability: form.Get("avail"),
		Sqft:         sqft,
		BHK:          bhk,
		Bath:         bath,
	}, nil
}
