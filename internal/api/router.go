package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/isdelr/homevalue/internal/api/handlers"
	"github.com/isdelr/homevalue/internal/services"
	"github.com/isdelr/homevalue/internal/web"
	"github.com/isdelr/homevalue/internal/websocket"
)

// Dependencies are the collaborators the router wires into handlers.
type Dependencies struct {
	Users       services.UserServiceProvider
	Sessions    services.SessionServiceProvider
	Events      services.EventServiceProvider
	Predictions services.PredictionServiceProvider
	Hub         *websocket.Hub
	Stats       handlers.StatsProvider
	Renderer    *web.Renderer

	SecureCookies      bool
	CORSAllowedOrigins []string
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(loadSession(deps.Sessions))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(deps.Users, deps.Sessions, deps.Events, deps.Renderer, deps.SecureCookies)
	predictionHandler := handlers.NewPredictionHandler(deps.Predictions, deps.Events, deps.Renderer)
	eventHandler := handlers.NewEventHandler(deps.Events)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub)
	healthHandler := handlers.NewHealthHandler(deps.Stats)

	r.Get("/health", healthHandler.Get)

	// Account pages
	r.Get("/", userHandler.Index)
	r.Get("/register", userHandler.RegisterPage)
	r.Post("/register", userHandler.Register)
	r.Get("/login", userHandler.LoginPage)
	r.Post("/login", userHandler.Login)
	r.Get("/logout", userHandler.Logout)
	r.Post("/logout", userHandler.Logout)

	r.With(requireLogin).Get("/dashboard", predictionHandler.Dashboard)

	// Prediction form and the option lists used by external front-ends
	r.Get("/predict", predictionHandler.PredictPage)
	r.Post("/predict", predictionHandler.Predict)
	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: deps.CORSAllowedOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		r.Get("/get_location_names", predictionHandler.LocationNames)
		r.Get("/get_area_names", predictionHandler.AreaNames)
		r.Get("/get_availability_names", predictionHandler.AvailabilityNames)
	})

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(requireLoginAPI)
		r.Get("/me", userHandler.GetMe)
		r.Get("/events", eventHandler.GetRecent)
		r.Get("/ws", wsHandler.Serve)
	})

	return r
}
