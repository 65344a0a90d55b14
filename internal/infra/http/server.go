package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"telegram-storefront/internal/infra/logging"
	"telegram-storefront/internal/infra/worker"
)

// SecretTokenHeader carries the secret_token registered with setWebhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookSink accepts updates posted by Telegram.
type WebhookSink interface {
	Enqueue(up tgbotapi.Update) error
}

// Server exposes /health, /metrics and, when a sink is given, the Telegram
// webhook.
type Server struct {
	port        int
	webhookPath string
	secret      string
	sink        WebhookSink
	log         *zerolog.Logger
	server      *http.Server
}

// NewServer builds the admin server. sink may be nil in polling mode; with a
// sink, webhook requests must carry secret in SecretTokenHeader.
func NewServer(port int, webhookPath, secret string, sink WebhookSink, logger *zerolog.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Server{
		port:        port,
		webhookPath: webhookPath,
		secret:      secret,
		sink:        sink,
		log:         logging.Component(logger, "http"),
	}
}

// Register attaches the routes to r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	if s.sink != nil && s.webhookPath != "" {
		r.Post(s.webhookPath, s.handleWebhook)
	}
}

// Handler returns the router with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	s.Register(r)
	return r
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.log.Info().Int("port", s.port).Str("webhook_path", s.webhookPath).Msg("http server listening")
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// handleWebhook answers 200 once the update is queued. Telegram retries
// non-2xx answers, so a full queue is reported as 503.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.log.Warn().Str("remote", r.RemoteAddr).Str("request_id", middleware.GetReqID(r.Context())).Msg("webhook request without valid secret token")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var up tgbotapi.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&up); err != nil {
		http.Error(w, "invalid update", http.StatusBadRequest)
		return
	}
	err := s.sink.Enqueue(up)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, worker.ErrQueueFull), errors.Is(err, worker.ErrPoolStopped):
		s.log.Warn().Err(err).Int("update_id", up.UpdateID).Str("request_id", middleware.GetReqID(r.Context())).Msg("webhook update rejected")
		http.Error(w, "busy", http.StatusServiceUnavailable)
	default:
		s.log.Error().Err(err).Int("update_id", up.UpdateID).Msg("webhook enqueue failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// authorized fails closed: an empty configured secret rejects every request.
func (s *Server) authorized(r *http.Request) bool {
	got := r.Header.Get(SecretTokenHeader)
	if s.secret == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(s.secret)) == 1
}
