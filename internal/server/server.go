// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jeranaias/tierroute/internal/engine"
	"github.com/jeranaias/tierroute/internal/router"
	"github.com/jeranaias/tierroute/internal/session"
)

// MaxRequestBodySize caps request bodies (64KB).
const MaxRequestBodySize = 64 * 1024

// ============================================================================
// CONFIGURATION
// ============================================================================

// Routing is the routing setup handed to new sessions. Sessions keep the
// Routing they were created with; SetRouting only affects later sessions.
type Routing struct {
	Catalog    *router.Catalog
	Classifier *router.Classifier
	Arbiter    engine.Arbiter
}

func (r Routing) validate() error {
	switch {
	case r.Catalog == nil:
		return errors.New("server: catalog is required")
	case r.Classifier == nil:
		return errors.New("server: classifier is required")
	case r.Arbiter == nil:
		return errors.New("server: arbiter is required")
	}
	return nil
}

// Options configures a Server.
type Options struct {
	// Addr is the listen address (default: 127.0.0.1:8787).
	Addr string

	// Sessions configures idle expiry and the session cap.
	Sessions session.Config

	// RateLimit is requests per minute per client IP. Zero disables it.
	RateLimit int

	// CORS enables CORS headers when non-nil.
	CORS *CORSConfig

	// Version is reported by /health.
	Version string

	Logger *zap.Logger
}

// ============================================================================
// SERVER
// ============================================================================

// host is one simulated downstream session: its routing state, the engine
// bound to its switcher and the status surface observers read.
type host struct {
	state    *session.State
	engine   *engine.Engine
	switcher *engine.MemorySwitcher
	status   *engine.Recorder
}

// Server exposes routing sessions over HTTP.
type Server struct {
	opts     Options
	logger   *zap.Logger
	routing  atomic.Pointer[Routing]
	sessions *session.Manager
	handler  http.Handler
	started  time.Time

	mu    sync.RWMutex
	hosts map[string]*host

	srvMu  sync.Mutex
	server *http.Server
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a server for the given routing setup.
func New(routing Routing, opts Options) (*Server, error) {
	if err := routing.validate(); err != nil {
		return nil, err
	}
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:8787"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	s := &Server{
		opts:     opts,
		logger:   opts.Logger.Named("server"),
		sessions: session.NewManager(opts.Sessions),
		hosts:    make(map[string]*host),
		started:  time.Now(),
	}
	s.routing.Store(&routing)
	s.sessions.SetLogger(s.logger)
	s.sessions.SetExpireCallback(func(st *session.State) {
		s.dropHost(st.ID())
	})
	s.handler = s.buildHandler()
	return s, nil
}

// SetRouting replaces the routing setup used by sessions created from now on.
func (s *Server) SetRouting(routing Routing) error {
	if err := routing.validate(); err != nil {
		return err
	}
	s.routing.Store(&routing)
	s.logger.Info("Routing setup replaced", zap.Strings("tiers", routing.Catalog.IDs()))
	return nil
}

// Handler returns the HTTP handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Sessions returns the session manager.
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

func (s *Server) buildHandler() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/tiers", s.handleTiers)
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Get("/", s.handleListSessions)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/prompt", s.handlePrompt)
				r.Post("/pin", s.handlePin)
				r.Post("/unpin", s.handleUnpin)
				r.Post("/select", s.handleSelect)
			})
		})
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no route for "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" not allowed on "+r.URL.Path)
	})

	middlewares := []func(http.Handler) http.Handler{
		RecoveryMiddleware(s.logger),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(s.logger),
	}
	if s.opts.CORS != nil {
		middlewares = append(middlewares, CORSMiddleware(s.opts.CORS))
	}
	if s.opts.RateLimit > 0 {
		middlewares = append(middlewares, RateLimitMiddleware(NewRateLimiter(s.opts.RateLimit, time.Minute), s.logger))
	}
	return Chain(middlewares...)(r)
}

// ============================================================================
// SESSION HOSTS
// ============================================================================

func (s *Server) newHost() (*host, error) {
	st, err := s.sessions.Create()
	if err != nil {
		return nil, err
	}

	routing := s.routing.Load()
	initial, _ := routing.Catalog.ForClass(router.ClassLow)
	h := &host{
		state:    st,
		switcher: engine.NewMemorySwitcher(initial.ID),
		status:   engine.NewRecorder(),
	}
	h.engine, err = engine.New(engine.Options{
		Catalog:    routing.Catalog,
		Classifier: routing.Classifier,
		Arbiter:    routing.Arbiter,
		Switcher:   h.switcher,
		Status:     h.status,
		Logger:     s.logger,
	})
	if err != nil {
		_ = s.sessions.Delete(st.ID())
		return nil, err
	}

	s.mu.Lock()
	s.hosts[st.ID()] = h
	s.mu.Unlock()
	return h, nil
}

// lookup resolves the {id} path parameter, writing a 404 when absent.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*host, bool) {
	id := chi.URLParam(r, "id")
	if _, err := s.sessions.Get(id); err != nil {
		writeError(w, http.StatusNotFound, "session_not_found", fmt.Sprintf("session %q not found", id))
		return nil, false
	}
	s.mu.RLock()
	h, ok := s.hosts[id]
	s.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, "session_not_found", fmt.Sprintf("session %q not found", id))
		return nil, false
	}
	return h, true
}

func (s *Server) dropHost(id string) {
	s.mu.Lock()
	delete(s.hosts, id)
	s.mu.Unlock()
}

// ============================================================================
// RESPONSE TYPES
// ============================================================================

// SessionView is the observable state of one session.
type SessionView struct {
	session.Snapshot
	ActiveTier    string                `json:"active_tier"`
	Status        string                `json:"status"`
	Notifications []engine.Notification `json:"notifications,omitempty"`
}

// CycleResponse is returned by the prompt and pin endpoints.
type CycleResponse struct {
	Action   engine.Action           `json:"action"`
	Decision *router.RoutingDecision `json:"decision,omitempty"`
	Arbiter  *VerdictView            `json:"arbiter,omitempty"`
	Error    string                  `json:"error,omitempty"`
	Session  SessionView             `json:"session"`
}

// VerdictView summarizes an arbiter consultation.
type VerdictView struct {
	Kind   string `json:"kind"`
	Class  string `json:"class"`
	Answer string `json:"answer,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// SelectResponse is returned by the select endpoint.
type SelectResponse struct {
	OverridePending bool        `json:"override_pending"`
	Session         SessionView `json:"session"`
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Sessions int    `json:"sessions"`
	Tiers    int    `json:"tiers"`
	Uptime   string `json:"uptime"`
}

func (h *host) view(ctx context.Context) SessionView {
	return SessionView{
		Snapshot:      h.state.Snapshot(),
		ActiveTier:    h.switcher.ActiveTier(ctx),
		Status:        h.status.Status(engine.StatusKey),
		Notifications: h.status.Notifications(),
	}
}

func (h *host) cycleResponse(ctx context.Context, res engine.CycleResult) CycleResponse {
	resp := CycleResponse{
		Action:   res.Action,
		Decision: res.Decision,
		Session:  h.view(ctx),
	}
	if res.Err != nil {
		resp.Error = res.Err.Error()
	}
	if v := res.Verdict; v != nil {
		resp.Arbiter = &VerdictView{
			Kind:   v.Kind.String(),
			Class:  v.Class.String(),
			Answer: v.Answer,
			Reason: v.Reason,
		}
	}
	return resp
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Version:  s.opts.Version,
		Sessions: s.sessions.Len(),
		Tiers:    s.routing.Load().Catalog.Len(),
		Uptime:   session.FormatDuration(time.Since(s.started)),
	})
}

func (s *Server) handleTiers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tiers": s.routing.Load().Catalog.All(),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	h, err := s.newHost()
	if err != nil {
		if errors.Is(err, session.ErrTooManySessions) {
			writeError(w, http.StatusServiceUnavailable, "too_many_sessions", err.Error())
			return
		}
		s.logger.Error("Session creation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create session")
		return
	}
	w.Header().Set("Location", "/v1/sessions/"+h.state.ID())
	writeJSON(w, http.StatusCreated, h.view(r.Context()))
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": s.sessions.List(),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.view(r.Context()))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.Delete(id); err != nil {
		writeError(w, http.StatusNotFound, "session_not_found", fmt.Sprintf("session %q not found", id))
		return
	}
	s.dropHost(id)
	w.WriteHeader(http.StatusNoContent)
}

type promptRequest struct {
	Prompt *string `json:"prompt"`
}

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req promptRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Prompt == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "prompt is required")
		return
	}

	res := h.engine.HandlePrompt(r.Context(), h.state, engine.PromptEvent{Prompt: *req.Prompt})
	writeJSON(w, http.StatusOK, h.cycleResponse(r.Context(), res))
}

type tierRequest struct {
	Tier   string `json:"tier"`
	Source string `json:"source"`
}

func (s *Server) handlePin(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req tierRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Tier) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "tier is required")
		return
	}

	res, err := h.engine.Pin(r.Context(), h.state, req.Tier)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown_tier", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.cycleResponse(r.Context(), res))
}

func (s *Server) handleUnpin(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookup(w, r)
	if !ok {
		return
	}
	h.engine.Unpin(h.state)
	writeJSON(w, http.StatusOK, h.view(r.Context()))
}

// handleSelect simulates a tier change made in the host outside the router.
// Source defaults to "set"; "router" and "restore" changes do not suppress
// routing.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req tierRequest
	if !decodeBody(w, r, &req) {
		return
	}
	tier, found := h.engine.Catalog().Lookup(req.Tier)
	if !found {
		writeError(w, http.StatusBadRequest, "unknown_tier",
			fmt.Sprintf("%v: %q", engine.ErrUnknownTier, req.Tier))
		return
	}
	if req.Source == "" {
		req.Source = engine.SourceSet
	}

	h.switcher.SetActive(tier.ID)
	pending := h.engine.ObserveTierSelect(h.state, engine.TierSelectEvent{
		TierID: tier.ID,
		Source: req.Source,
	})
	writeJSON(w, http.StatusOK, SelectResponse{
		OverridePending: pending,
		Session:         h.view(r.Context()),
	})
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// Start listens on Addr and serves until Shutdown. It returns
// http.ErrServerClosed after a graceful shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.srvMu.Lock()
	if s.server != nil {
		s.srvMu.Unlock()
		cancel()
		return errors.New("server already started")
	}
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.cancel = cancel
	s.done = done
	srv := s.server
	s.srvMu.Unlock()

	go func() {
		defer close(done)
		s.sessions.Run(ctx)
	}()

	s.logger.Info("Server started", zap.String("addr", ln.Addr().String()), zap.String("version", s.opts.Version))
	err := srv.Serve(ln)
	if !errors.Is(err, http.ErrServerClosed) {
		cancel()
		<-done
	}
	return err
}

// Shutdown stops accepting requests, waits for in-flight ones and stops the
// session sweeper.
func (s *Server) Shutdown(ctx context.Context) error {
	s.srvMu.Lock()
	srv, cancel, done := s.server, s.cancel, s.done
	s.srvMu.Unlock()
	if srv == nil {
		return nil
	}

	s.logger.Info("Server shutting down", zap.Int("sessions", s.sessions.Len()))
	err := srv.Shutdown(ctx)
	cancel()
	<-done
	return err
}

// ============================================================================
// HELPERS
// ============================================================================

// decodeBody decodes a JSON body into v. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request_too_large", "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body: "+err.Error())
		return false
	}
	return true
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    errType,
			"code":    status,
		},
	})
}
