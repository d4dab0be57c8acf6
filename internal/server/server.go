package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"chatwire/internal/app"
	"chatwire/internal/presence"
	"chatwire/internal/push"
	"chatwire/internal/ratelimit"
	"chatwire/internal/util"
	"chatwire/pkg/auth"
	"chatwire/pkg/domain"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	Registry       *presence.Registry
	Dispatcher     *push.Dispatcher
	SignupLimiter  *ratelimit.FixedWindowLimiter
	LoginLimiter   *ratelimit.FixedWindowLimiter
	TrustedProxies *util.TrustedProxies
}

// Server exposes the chat HTTP API and the websocket endpoint.
type Server struct {
	app           *app.App
	registry      *presence.Registry
	dispatcher    *push.Dispatcher
	signupLimiter *ratelimit.FixedWindowLimiter
	loginLimiter  *ratelimit.FixedWindowLimiter
	trusted       *util.TrustedProxies
	mux           *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:           cfg.App,
		registry:      cfg.Registry,
		dispatcher:    cfg.Dispatcher,
		signupLimiter: cfg.SignupLimiter,
		loginLimiter:  cfg.LoginLimiter,
		trusted:       cfg.TrustedProxies,
		mux:           http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler with ambient middleware applied.
func (s *Server) Router() http.Handler {
	return util.WithSecurityHeaders(util.WithCORS(util.WithRequestID(util.WithRequestLog("chatwire", s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.HandleFunc("POST /api/auth/signup", s.handleSignup)
	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	s.mux.Handle("GET /api/auth/check", s.withUser(s.handleCheck))
	s.mux.Handle("POST /api/auth/logout", s.withUser(s.handleLogout))
	s.mux.Handle("PUT /api/auth/update-profile", s.withUser(s.handleUpdateProfile))
	s.mux.Handle("GET /api/messages/users", s.withUser(s.handleContacts))
	s.mux.Handle("GET /api/messages/{id}", s.withUser(s.handleConversation))
	s.mux.Handle("POST /api/messages/send/{id}", s.withUser(s.handleSend))
	s.mux.Handle("PUT /api/messages/mark/{id}", s.withUser(s.handleMarkSeen))
	s.mux.Handle("POST /api/messages/react/{id}", s.withUser(s.handleReact))
	s.mux.HandleFunc("GET /ws", s.handleWS)
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]any{"status": "live"})
}

type signupRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Bio      string `json:"bio"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if !s.allow(s.signupLimiter, r) {
		writeFailure(w, http.StatusTooManyRequests, "too many signup attempts, try again later")
		return
	}
	var req signupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, token, err := s.app.SignUp(req.FullName, req.Email, req.Password, req.Bio)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"user": user, "token": token})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.allow(s.loginLimiter, r) {
		writeFailure(w, http.StatusTooManyRequests, "too many login attempts, try again later")
		return
	}
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, token, err := s.app.Login(req.Email, req.Password)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"user": user, "token": token})
}

func (s *Server) handleCheck(w http.ResponseWriter, _ *http.Request, _ string, user domain.User) {
	writeSuccess(w, http.StatusOK, map[string]any{"user": user})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request, token string, _ domain.User) {
	if err := s.app.Logout(token); err != nil {
		writeAppError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

type updateProfileRequest struct {
	FullName   string `json:"fullName"`
	Bio        string `json:"bio"`
	ProfilePic string `json:"profilePic"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request, _ string, user domain.User) {
	var req updateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}
	updated, err := s.app.UpdateProfile(r.Context(), user, req.FullName, req.Bio, req.ProfilePic)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"user": updated})
}

func (s *Server) handleContacts(w http.ResponseWriter, _ *http.Request, _ string, user domain.User) {
	users, unseen, err := s.app.ListContacts(user)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"users": users, "unseenMessages": unseen})
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request, _ string, user domain.User) {
	peerID := r.PathValue("id")
	messages, err := s.app.GetConversation(user, peerID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"messages": messages})
}

type sendRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request, _ string, user domain.User) {
	var req sendRequest
	if !decodeBody(w, r, &req) {
		return
	}
	msg, err := s.app.SendMessage(r.Context(), user, r.PathValue("id"), req.Text, req.Image)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"message": msg})
}

func (s *Server) handleMarkSeen(w http.ResponseWriter, r *http.Request, _ string, user domain.User) {
	if err := s.app.MarkMessageSeen(user, r.PathValue("id")); err != nil {
		writeAppError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, nil)
}

type reactRequest struct {
	Emoji string `json:"emoji"`
}

func (s *Server) handleReact(w http.ResponseWriter, r *http.Request, _ string, user domain.User) {
	var req reactRequest
	if !decodeBody(w, r, &req) {
		return
	}
	reactions, err := s.app.ReactToMessage(user, r.PathValue("id"), req.Emoji)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"reactions": reactions})
}

type userHandler func(http.ResponseWriter, *http.Request, string, domain.User)

func (s *Server) withUser(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeFailure(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		user, ok := s.app.UserFromToken(token)
		if !ok {
			writeFailure(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, token, user)
	})
}

func (s *Server) allow(limiter *ratelimit.FixedWindowLimiter, r *http.Request) bool {
	if limiter == nil {
		return true
	}
	return limiter.Allow(util.ClientIP(r, s.trusted))
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 8<<20)).Decode(dst); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeSuccess emits the uniform success envelope with optional extra fields.
func writeSuccess(w http.ResponseWriter, status int, extra map[string]any) {
	payload := map[string]any{"success": true}
	for k, v := range extra {
		payload[k] = v
	}
	writeJSON(w, status, payload)
}

// writeFailure emits the uniform failure envelope.
func writeFailure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "message": msg})
}

func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrAllFieldsRequired),
		errors.Is(err, app.ErrInvalidEmail),
		errors.Is(err, app.ErrEmptyMessage),
		errors.Is(err, app.ErrEmojiRequired),
		errors.Is(err, app.ErrNoProfileFields),
		errors.Is(err, auth.ErrWeakPassword):
		writeFailure(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrInvalidCredentials):
		writeFailure(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrEmailAlreadyExists):
		writeFailure(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrReceiverNotFound),
		errors.Is(err, app.ErrMessageNotFound),
		errors.Is(err, app.ErrMessageNotSeen):
		writeFailure(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrNotParticipant):
		writeFailure(w, http.StatusForbidden, err.Error())
	case errors.Is(err, app.ErrImageUpload):
		writeFailure(w, http.StatusBadGateway, err.Error())
	default:
		slog.Error("request failed", "err", err)
		writeFailure(w, http.StatusInternalServerError, "internal server error")
	}
}
