package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vitrine-pos/vitrine-pos/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/register", h.handleRegister)
	r.Post("/logout", h.handleLogout)
	r.Get("/session", h.handleSession)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type accountResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Authorized bool   `json:"authorized"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondMessage(w, http.StatusBadRequest, "email and password are required")
		return
	}

	account, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNotAuthorized):
			shared.RespondMessage(w, http.StatusForbidden, "account pending authorization")
		default:
			shared.RespondMessage(w, http.StatusBadRequest, "invalid email or password")
		}
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		shared.RespondMessage(w, http.StatusInternalServerError, "session unavailable")
		return
	}
	sess.SetUser(account.ID)
	sess.Set(shared.RoleSessionKey, account.Role)

	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, account.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}

	shared.RespondJSON(w, http.StatusOK, accountResponse{
		ID:         account.ID,
		Name:       account.Name,
		Email:      account.Email,
		Role:       account.Role,
		Authorized: account.Authorized,
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondMessage(w, http.StatusBadRequest, "name, email and password are required")
		return
	}

	account, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrAccountLimitReached):
			shared.RespondMessage(w, http.StatusForbidden, "registration closed: account limit reached")
		case errors.Is(err, ErrEmailTaken):
			shared.RespondMessage(w, http.StatusBadRequest, "email already registered")
		default:
			h.logger.Error("register account", slog.Any("error", err))
			shared.RespondMessage(w, http.StatusInternalServerError, "could not register account")
		}
		return
	}

	shared.RespondJSON(w, http.StatusCreated, accountResponse{
		ID:         account.ID,
		Name:       account.Name,
		Email:      account.Email,
		Role:       account.Role,
		Authorized: account.Authorized,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	shared.RespondMessage(w, http.StatusOK, "logged out")
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		shared.RespondMessage(w, http.StatusUnauthorized, "not logged in")
		return
	}
	shared.RespondJSON(w, http.StatusOK, map[string]string{
		"userId": sess.User(),
		"role":   sess.Get(shared.RoleSessionKey),
	})
}

// HandleLoginForTest exposes the login handler for tests.
func (h *Handler) HandleLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r)
}

// HandleRegisterForTest exposes the register handler for tests.
func (h *Handler) HandleRegisterForTest(w http.ResponseWriter, r *http.Request) {
	h.handleRegister(w, r)
}
