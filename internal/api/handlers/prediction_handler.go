package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/homevalue/internal/auth"
	"github.com/isdelr/homevalue/internal/models"
	"github.com/isdelr/homevalue/internal/predictor"
	"github.com/isdelr/homevalue/internal/services"
	"github.com/isdelr/homevalue/internal/web"
)

const unavailableMessage = "Price prediction is unavailable right now, please try again later"

// PredictionHandler serves the dashboard, the prediction form and the model's option lists.
type PredictionHandler struct {
	service  services.PredictionServiceProvider
	events   services.EventServiceProvider
	renderer *web.Renderer
}

// NewPredictionHandler creates a new PredictionHandler.
func NewPredictionHandler(service services.PredictionServiceProvider, events services.EventServiceProvider, renderer *web.Renderer) *PredictionHandler {
	return &PredictionHandler{service: service, events: events, renderer: renderer}
}

type homePage struct {
	User           *models.User
	Options        predictor.Options
	PredictionText string
	Error          string
}

func (h *PredictionHandler) newHomePage(ctx context.Context) homePage {
	var page homePage
	if user, ok := auth.UserFromContext(ctx); ok {
		page.User = &user
	}
	opts, err := h.service.Options(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load model options")
		page.Error = unavailableMessage
		return page
	}
	page.Options = opts
	return page
}

// Dashboard renders the signed-in home page.
func (h *PredictionHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "home.html", h.newHomePage(r.Context()))
}

// PredictPage renders the prediction form.
func (h *PredictionHandler) PredictPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "home.html", h.newHomePage(r.Context()))
}

// Predict handles a submitted prediction form.
func (h *PredictionHandler) Predict(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		page := h.newHomePage(r.Context())
		page.Error = "Invalid form submission"
		h.renderer.Render(w, http.StatusBadRequest, "home.html", page)
		return
	}

	prediction, err := h.service.Predict(r.Context(), r.PostForm)
	page := h.newHomePage(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			page.Error = err.Error()
			h.renderer.Render(w, http.StatusBadRequest, "home.html", page)
		case errors.Is(err, services.ErrPredictionUnavailable):
			log.Error().Err(err).Msg("Prediction failed")
			page.Error = unavailableMessage
			h.renderer.Render(w, http.StatusBadGateway, "home.html", page)
		default:
			log.Error().Err(err).Msg("Prediction failed")
			page.Error = "Prediction failed"
			h.renderer.Render(w, http.StatusInternalServerError, "home.html", page)
		}
		return
	}

	log.Info().
		Str("location", prediction.Query.Location).
		Float64("sqft", prediction.Query.Sqft).
		Float64("price", prediction.Price).
		Msg("Price predicted")
	if page.User != nil {
		msg := fmt.Sprintf("Estimated %s sqft in %s at Rs. %s lakhs", strconv.FormatFloat(prediction.Query.Sqft, 'f', -1, 64), prediction.Query.Location, strconv.FormatFloat(prediction.Price, 'f', -1, 64))
		if err := h.events.CreateEvent(r.Context(), models.EventPredictionRequest, "info", msg, &page.User.ID); err != nil {
			log.Warn().Err(err).Str("user_id", page.User.ID).Msg("Failed to record prediction event")
		}
	}
	page.PredictionText = prediction.Text
	h.renderer.Render(w, http.StatusOK, "home.html", page)
}

// LocationNames returns {"locations": [...]}.
func (h *PredictionHandler) LocationNames(w http.ResponseWriter, r *http.Request) {
	h.writeOptions(w, r, "locations", func(o predictor.Options) []string { return o.Locations })
}

// AreaNames returns {"area": [...]}.
func (h *PredictionHandler) AreaNames(w http.ResponseWriter, r *http.Request) {
	h.writeOptions(w, r, "area", func(o predictor.Options) []string { return o.Areas })
}

// AvailabilityNames returns {"availability": [...]}.
func (h *PredictionHandler) AvailabilityNames(w http.ResponseWriter, r *http.Request) {
	h.writeOptions(w, r, "availability", func(o predictor.Options) []string { return o.Availability })
}

func (h *PredictionHandler) writeOptions(w http.ResponseWriter, r *http.Request, key string, pick func(predictor.Options) []string) {
	opts, err := h.service.Options(r.Context())
	if err != nil {
		log.Error().Err(err).Str("list", key).Msg("Failed to load model options")
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": unavailableMessage})
		return
	}
	values := pick(opts)
	if values == nil {
		values = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{key: values})
}
