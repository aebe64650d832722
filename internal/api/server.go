// Package api exposes the portal over HTTP: account registration and login,
// the role-scoped chat endpoint, and the admin reindex trigger.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"finedge/internal/auth"
	"finedge/internal/domain"
	"finedge/internal/prompt"
	"finedge/internal/service"
)

// adminRole is the only role allowed to trigger a reindex.
const adminRole = "c-suite"

// ChatPort is the server-facing subset of the chat service.
type ChatPort interface {
	Answer(ctx context.Context, role, query string) (string, error)
	RebuildAllIndexes(ctx context.Context) (map[string]service.RoleStatus, error)
}

type Server struct {
	router *chi.Mux
	port   int
	tokens *auth.TokenService
	users  *auth.UserStore
	chat   ChatPort
}

func NewServer(port int, tokens *auth.TokenService, users *auth.UserStore, chat ChatPort) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		port:   port,
		tokens: tokens,
		users:  users,
		chat:   chat,
	}

	router.Get("/health", s.health)
	router.Post("/api/v1/auth/register", s.register)
	router.Post("/api/v1/auth/login", s.login)

	router.Group(func(r chi.Router) {
		r.Use(s.withAuth)
		r.Post("/api/v1/chat", s.handleChat)
		r.Post("/api/v1/admin/reindex", s.reindex)
	})

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("portal server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

// ServeHTTP makes the server usable as a handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	role := domain.NormalizeRole(req.Role)
	switch {
	case req.Username == "":
		writeError(w, http.StatusBadRequest, "username is required")
		return
	case len(req.Password) < 8:
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	case !domain.KnownRole(role):
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown role %q", req.Role))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("hash password", "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	err = s.users.Create(r.Context(), auth.User{Username: req.Username, PasswordHash: hash, Role: role})
	if errors.Is(err, auth.ErrUserExists) {
		writeError(w, http.StatusConflict, "username already taken")
		return
	}
	if err != nil {
		slog.Error("create user", "username", req.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	slog.Info("user registered", "username", req.Username, "role", role)
	writeJSON(w, http.StatusCreated, map[string]string{"username": req.Username, "role": role})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"access_token"`
	TokenType string `json:"token_type"`
	Role      string `json:"role"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := s.users.Get(r.Context(), strings.TrimSpace(req.Username))
	if errors.Is(err, auth.ErrUserNotFound) || (err == nil && !auth.VerifyPassword(req.Password, user.PasswordHash)) {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	if err != nil {
		slog.Error("look up user", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	token, err := s.tokens.Generate(user.Username, user.Role)
	if err != nil {
		slog.Error("issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, TokenType: "bearer", Role: user.Role})
}

type chatRequest struct {
	Query string `json:"query"`
}

type chatResponse struct {
	Answer string `json:"answer"`
	Role   string `json:"role"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	// The role always comes from the verified token, never the request body.
	answer, err := s.chat.Answer(r.Context(), identity.Role, req.Query)
	if errors.Is(err, domain.ErrIndexNotFound) {
		writeError(w, http.StatusConflict, "no documents indexed for your role yet")
		return
	}
	if err != nil {
		slog.Error("answer query", "role", identity.Role, "error", err)
		writeJSON(w, http.StatusOK, chatResponse{Answer: prompt.SystemErrorResponse, Role: identity.Role})
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Answer: answer, Role: identity.Role})
}

func (s *Server) reindex(w http.ResponseWriter, r *http.Request) {
	identity := identityFrom(r)
	if identity.Role != adminRole {
		writeError(w, http.StatusForbidden, "reindex requires the c-suite role")
		return
	}
	statuses, err := s.chat.RebuildAllIndexes(r.Context())
	if err != nil {
		slog.Error("rebuild indexes", "error", err)
		writeError(w, http.StatusInternalServerError, "reindex failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"roles": statuses})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
