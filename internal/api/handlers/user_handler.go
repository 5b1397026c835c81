package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/homevalue/internal/auth"
	"github.com/isdelr/homevalue/internal/models"
	"github.com/isdelr/homevalue/internal/services"
	"github.com/isdelr/homevalue/internal/web"
)

// UserHandler handles registration, login and logout.
type UserHandler struct {
	users         services.UserServiceProvider
	sessions      services.SessionServiceProvider
	events        services.EventServiceProvider
	renderer      *web.Renderer
	secureCookies bool
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users services.UserServiceProvider, sessions services.SessionServiceProvider, events services.EventServiceProvider, renderer *web.Renderer, secureCookies bool) *UserHandler {
	return &UserHandler{
		users:         users,
		sessions:      sessions,
		events:        events,
		renderer:      renderer,
		secureCookies: secureCookies,
	}
}

type registerPage struct {
	Name        string
	Email       string
	PhoneNumber string
	Error       string
}

type loginPage struct {
	Email string
	Error string
}

// Index renders the landing page.
func (h *UserHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "index.html", nil)
}

// RegisterPage renders the empty registration form.
func (h *UserHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "register.html", registerPage{})
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.Render(w, http.StatusBadRequest, "register.html", registerPage{Error: "Invalid form submission"})
		return
	}
	page := registerPage{
		Name:        r.PostFormValue("name"),
		Email:       strings.TrimSpace(r.PostFormValue("email")),
		PhoneNumber: r.PostFormValue("phone_number"),
	}

	user, err := h.users.CreateUser(r.Context(), page.Name, page.Email, r.PostFormValue("password"), page.PhoneNumber)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicateEmail):
			log.Info().Str("email", page.Email).Msg("Registration with existing email")
			page.Error = "An account with this email already exists"
			h.renderer.Render(w, http.StatusConflict, "register.html", page)
		case errors.Is(err, services.ErrInvalidInput):
			page.Error = err.Error()
			h.renderer.Render(w, http.StatusBadRequest, "register.html", page)
		default:
			log.Error().Err(err).Str("email", page.Email).Msg("Failed to register user")
			page.Error = "Registration failed, please try again"
			h.renderer.Render(w, http.StatusInternalServerError, "register.html", page)
		}
		return
	}

	if err := h.events.CreateEvent(r.Context(), models.EventUserRegister, "info", "Account created", &user.ID); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to record registration event")
	}
	log.Info().Str("user_id", user.ID).Msg("User registered")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// LoginPage renders the empty login form.
func (h *UserHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "login.html", loginPage{})
}

// Login handles user authentication and starts a session.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.Render(w, http.StatusBadRequest, "login.html", loginPage{Error: "Invalid form submission"})
		return
	}
	email := strings.TrimSpace(r.PostFormValue("email"))

	token, user, err := h.sessions.Login(r.Context(), email, r.PostFormValue("password"))
	if err != nil {
		if errors.Is(err, services.ErrAuthFailure) {
			log.Warn().Str("email", email).Msg("Failed authentication attempt")
			h.renderer.Render(w, http.StatusUnauthorized, "login.html", loginPage{Email: email, Error: "Invalid user"})
			return
		}
		log.Error().Err(err).Str("email", email).Msg("Failed to log in")
		h.renderer.Render(w, http.StatusInternalServerError, "login.html", loginPage{Email: email, Error: "Login failed, please try again"})
		return
	}

	// A browser holds one session at a time; the one being replaced is closed.
	if previous := auth.TokenFromRequest(r); previous != "" {
		if err := h.sessions.Logout(r.Context(), previous); err != nil {
			log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to close replaced session")
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	log.Info().Str("user_id", user.ID).Msg("User logged in")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout ends the session and clears the cookie.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context(), auth.TokenFromRequest(r)); err != nil {
		log.Error().Err(err).Msg("Failed to delete session")
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// GetMe returns the signed-in user.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Error(w, services.ErrNotAuthenticated.Error(), http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
