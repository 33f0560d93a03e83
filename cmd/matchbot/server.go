package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"matchbot/internal/constants"
	"matchbot/internal/models"
	"matchbot/pkg/chat"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const maxWebhookBodyBytes = 1 << 20

// Headers carrying the webhook signature.
const (
	headerSignature = "X-Chat-Signature"
	headerTimestamp = "X-Chat-Request-Timestamp"
)

// EventSink receives verified, parsed chat events.
type EventSink interface {
	HandleMessage(ctx context.Context, msg *models.InboundMessage)
	HandleDecision(ctx context.Context, decision *models.Decision)
}

// HistoryProvider serves finished workflow outcomes for the history endpoint.
type HistoryProvider interface {
	Recent(ctx context.Context, limit int) ([]models.HistoryEntry, error)
}

type Server struct {
	router        *mux.Router
	logger        *logrus.Logger
	sink          EventSink
	history       HistoryProvider
	signingSecret string
	cfg           models.ServerConfig
	server        *http.Server
}

// NewServer builds the webhook HTTP server. history may be nil, in which case
// the history endpoint is not registered.
func NewServer(cfg models.ServerConfig, signingSecret string, sink EventSink, history HistoryProvider, logger *logrus.Logger) *Server {
	s := &Server{
		router:        mux.NewRouter(),
		logger:        logger,
		sink:          sink,
		history:       history,
		signingSecret: signingSecret,
		cfg:           cfg,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)

	webhooks := s.router.PathPrefix("/webhook").Subrouter()
	webhooks.HandleFunc("/events", s.handleEvents()).Methods(http.MethodPost)
	webhooks.HandleFunc("/actions", s.handleActions()).Methods(http.MethodPost)

	if s.history != nil {
		s.router.HandleFunc("/history", s.handleHistory()).Methods(http.MethodGet)
	}
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSec) * time.Second,
	}

	s.logger.Infof("Starting server on port %d", s.cfg.Port)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}
}

func (s *Server) handleHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := constants.DefaultHistoryLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			if parsed < limit {
				limit = parsed
			}
		}

		entries, err := s.history.Recent(r.Context(), limit)
		if err != nil {
			s.logger.WithError(err).Error("Failed to query publish history")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if entries == nil {
			entries = []models.HistoryEntry{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(entries)
	}
}

// readVerifiedBody reads the request body and checks the webhook signature.
func (s *Server) readVerifiedBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		s.logger.WithError(err).Warn("Failed to read webhook body")
		http.Error(w, "bad request", http.StatusBadRequest)
		return nil, false
	}

	err = chat.VerifySignature(
		s.signingSecret,
		r.Header.Get(headerTimestamp),
		r.Header.Get(headerSignature),
		body,
		time.Duration(constants.DefaultWebhookMaxSkewSec)*time.Second,
	)
	if err != nil {
		s.logger.WithError(err).Warn("Rejected webhook with invalid signature")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	return body, true
}

func (s *Server) handleEvents() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := s.readVerifiedBody(w, r)
		if !ok {
			return
		}

		payload, err := chat.ParseEventPayload(body)
		if err != nil {
			s.logger.WithError(err).Warn("Malformed event payload")
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		if payload.Type == chat.EventTypeURLVerification {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"challenge": payload.Challenge})
			return
		}

		// Acknowledge before processing; the platform retries deliveries
		// that do not get a prompt 200.
		w.WriteHeader(http.StatusOK)

		if payload.Type != chat.EventTypeEventCallback || !payload.Event.IsUserMessage() {
			return
		}

		msg := payload.Event.ToInbound()
		go s.sink.HandleMessage(context.Background(), msg)
	}
}

func (s *Server) handleActions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := s.readVerifiedBody(w, r)
		if !ok {
			return
		}

		payload, err := chat.ParseActionPayload(body)
		if err != nil {
			s.logger.WithError(err).Warn("Malformed action payload")
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		w.WriteHeader(http.StatusOK)

		decision := payload.ToDecision()
		if decision == nil {
			return
		}

		go s.sink.HandleDecision(context.Background(), decision)
	}
}
