// Package app hosts the signal ingestion API and the tracker service runtime.
package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/louisbranch/cardstream/internal/exposure/domain"
	"github.com/louisbranch/cardstream/internal/exposure/frame"
	"github.com/louisbranch/cardstream/internal/exposure/storage"
	"github.com/louisbranch/cardstream/internal/exposure/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "cardstream/exposure/app"

// ServerConfig wires the ingestion server's collaborators. Emitter is
// required; Store and Telemetry are optional.
type ServerConfig struct {
	Emitter       domain.Emitter
	Store         storage.ExposureStore
	Telemetry     *telemetry.Emitter
	FrameInterval time.Duration
	NewScheduler  func() frame.Scheduler
	Clock         func() time.Time
	Logf          func(string, ...any)
}

// Server tracks one exposure tracker per registered feed and exposes the
// host signal callbacks over HTTP.
type Server struct {
	mu        sync.Mutex
	feeds     map[string]*domain.Tracker
	emitter   domain.Emitter
	journal   *journalAdapter
	store     storage.ExposureStore
	telemetry *telemetry.Emitter
	scheduler func() frame.Scheduler
	clock     func() time.Time
	logf      func(string, ...any)
	tracer    trace.Tracer
}

// NewServer builds the ingestion server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Emitter == nil {
		return nil, fmt.Errorf("emitter is required")
	}
	interval := cfg.FrameInterval
	if interval <= 0 {
		interval = frame.DefaultInterval
	}
	newScheduler := cfg.NewScheduler
	if newScheduler == nil {
		newScheduler = func() frame.Scheduler { return frame.NewTickerScheduler(interval) }
	}
	logf := cfg.Logf
	if logf == nil {
		logf = log.Printf
	}
	return &Server{
		feeds:     make(map[string]*domain.Tracker),
		emitter:   cfg.Emitter,
		journal:   newJournalAdapter(cfg.Store),
		store:     cfg.Store,
		telemetry: cfg.Telemetry,
		scheduler: newScheduler,
		clock:     cfg.Clock,
		logf:      logf,
		tracer:    otel.Tracer(tracerName),
	}, nil
}

// Handler returns the HTTP routes for the ingestion API.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintln(w, "OK")
	}).Methods(http.MethodGet)

	r.HandleFunc("/v1/feeds/{feed}", s.handleRegisterFeed).Methods(http.MethodPut)
	r.HandleFunc("/v1/feeds/{feed}", s.handleRemoveFeed).Methods(http.MethodDelete)
	r.HandleFunc("/v1/feeds/{feed}/state", s.handleFeedState).Methods(http.MethodGet)
	r.HandleFunc("/v1/feeds/{feed}/exposures", s.handleListExposures).Methods(http.MethodGet)
	r.HandleFunc("/v1/feeds/{feed}/signals/offset", s.handleOffset).Methods(http.MethodPost)
	r.HandleFunc("/v1/feeds/{feed}/signals/settled", s.handleSettled).Methods(http.MethodPost)
	r.HandleFunc("/v1/feeds/{feed}/signals/visibility", s.handleVisibility).Methods(http.MethodPost)
	r.HandleFunc("/v1/feeds/{feed}/session", s.handleSessionChanged).Methods(http.MethodPost)
	return r
}

// Close tears down every registered tracker.
func (s *Server) Close() {
	s.mu.Lock()
	trackers := make([]*domain.Tracker, 0, len(s.feeds))
	for _, tracker := range s.feeds {
		trackers = append(trackers, tracker)
	}
	s.feeds = make(map[string]*domain.Tracker)
	s.mu.Unlock()

	for _, tracker := range trackers {
		tracker.Close()
	}
}

func (s *Server) trackerFor(feedID string) (*domain.Tracker, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tracker, ok := s.feeds[feedID]
	return tracker, ok
}

type registerFeedRequest struct {
	Items      []registerFeedItem `json:"items"`
	Extent     float64            `json:"extent"`
	SessionKey string             `json:"session_key"`
}

type registerFeedItem struct {
	ID string `json:"id"`
}

type feedStateResponse struct {
	Feed         string `json:"feed"`
	ItemCount    int    `json:"item_count"`
	CurrentIndex int    `json:"current_index"`
	PostedCount  int    `json:"posted_count"`
	SessionKey   string `json:"session_key"`
}

type offsetSignalRequest struct {
	Value float64 `json:"value"`
}

type visibilitySignalRequest struct {
	Items []visibilitySignalItem `json:"items"`
}

type visibilitySignalItem struct {
	ID              string  `json:"id"`
	Ordinal         int     `json:"ordinal"`
	VisibleFraction float64 `json:"visible_fraction"`
}

type sessionChangeRequest struct {
	SessionKey *string `json:"session_key"`
}

type exposureResponse struct {
	ItemID     string    `json:"item_id"`
	Ordinal    int       `json:"ordinal"`
	Source     string    `json:"source"`
	SessionKey string    `json:"session_key"`
	PostedAt   time.Time `json:"posted_at"`
}

func (s *Server) handleRegisterFeed(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "exposure.feed.register")
	defer span.End()

	feedID := mux.Vars(r)["feed"]
	span.SetAttributes(attribute.String("feed.id", feedID))

	var req registerFeedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	items := make([]domain.Item, len(req.Items))
	for i, item := range req.Items {
		items[i] = domain.Item{ID: item.ID, Ordinal: i}
	}
	feed, err := domain.NewFeed(items, req.Extent)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var journal domain.Journal
	if s.journal != nil {
		journal = s.journal
	}
	tracker, err := domain.NewTracker(ctx, domain.Config{
		Feed:       feed,
		Scheduler:  s.scheduler(),
		Emitter:    s.emitter,
		Journal:    journal,
		SessionKey: req.SessionKey,
		Clock:      s.clock,
		Logf:       s.logf,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	previous := s.feeds[feedID]
	s.feeds[feedID] = tracker
	s.mu.Unlock()
	if previous != nil {
		previous.Close()
	}

	s.emitTelemetry(r, telemetry.SeverityInfo, "feed.registered",
		fmt.Sprintf(`{"feed":%q,"items":%d}`, feedID, feed.Len()))

	writeJSON(w, http.StatusCreated, feedStateResponse{
		Feed:         feedID,
		ItemCount:    feed.Len(),
		CurrentIndex: tracker.CurrentIndex(),
		PostedCount:  tracker.PostedCount(),
		SessionKey:   tracker.SessionKey(),
	})
}

func (s *Server) handleRemoveFeed(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer.Start(r.Context(), "exposure.feed.remove")
	defer span.End()

	feedID := mux.Vars(r)["feed"]
	span.SetAttributes(attribute.String("feed.id", feedID))

	s.mu.Lock()
	tracker, ok := s.feeds[feedID]
	delete(s.feeds, feedID)
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "feed not found")
		return
	}
	tracker.Close()

	s.emitTelemetry(r, telemetry.SeverityInfo, "feed.removed", fmt.Sprintf(`{"feed":%q}`, feedID))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFeedState(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer.Start(r.Context(), "exposure.feed.state")
	defer span.End()

	feedID := mux.Vars(r)["feed"]
	tracker, ok := s.trackerFor(feedID)
	if !ok {
		writeError(w, http.StatusNotFound, "feed not found")
		return
	}
	writeJSON(w, http.StatusOK, feedStateResponse{
		Feed:         feedID,
		ItemCount:    tracker.Feed().Len(),
		CurrentIndex: tracker.CurrentIndex(),
		PostedCount:  tracker.PostedCount(),
		SessionKey:   tracker.SessionKey(),
	})
}

func (s *Server) handleListExposures(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "exposure.feed.exposures")
	defer span.End()

	feedID := mux.Vars(r)["feed"]
	tracker, ok := s.trackerFor(feedID)
	if !ok {
		writeError(w, http.StatusNotFound, "feed not found")
		return
	}
	if s.store == nil {
		writeJSON(w, http.StatusOK, []exposureResponse{})
		return
	}

	records, err := s.store.ListExposuresBySession(ctx, tracker.SessionKey(), 0)
	if err != nil {
		s.logf("list exposures for feed %s: %v", feedID, err)
		writeError(w, http.StatusInternalServerError, "list exposures failed")
		return
	}
	response := make([]exposureResponse, len(records))
	for i, record := range records {
		response[i] = exposureResponse{
			ItemID:     record.ItemID,
			Ordinal:    record.Ordinal,
			Source:     record.Source,
			SessionKey: record.SessionKey,
			PostedAt:   record.PostedAt,
		}
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleOffset(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer.Start(r.Context(), "exposure.signal.offset")
	defer span.End()

	tracker, ok := s.trackerFor(mux.Vars(r)["feed"])
	if !ok {
		writeError(w, http.StatusNotFound, "feed not found")
		return
	}
	var req offsetSignalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tracker.ScrollOffset(req.Value)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleSettled(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer.Start(r.Context(), "exposure.signal.settled")
	defer span.End()

	tracker, ok := s.trackerFor(mux.Vars(r)["feed"])
	if !ok {
		writeError(w, http.StatusNotFound, "feed not found")
		return
	}
	var req offsetSignalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tracker.Settled(req.Value)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	_, span := s.tracer.Start(r.Context(), "exposure.signal.visibility")
	defer span.End()

	tracker, ok := s.trackerFor(mux.Vars(r)["feed"])
	if !ok {
		writeError(w, http.StatusNotFound, "feed not found")
		return
	}
	var req visibilitySignalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	items := make([]domain.VisibleItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = domain.VisibleItem{ID: item.ID, Ordinal: item.Ordinal, Fraction: item.VisibleFraction}
	}
	tracker.VisibleItemsChanged(items)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleSessionChanged(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.tracer.Start(r.Context(), "exposure.session.changed")
	defer span.End()

	feedID := mux.Vars(r)["feed"]
	tracker, ok := s.trackerFor(feedID)
	if !ok {
		writeError(w, http.StatusNotFound, "feed not found")
		return
	}
	var req sessionChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sessionKey := ""
	if req.SessionKey != nil {
		sessionKey = *req.SessionKey
	}
	tracker.SessionChanged(ctx, sessionKey)

	s.emitTelemetry(r, telemetry.SeverityInfo, "session.changed",
		fmt.Sprintf(`{"feed":%q,"session":%q}`, feedID, strings.TrimSpace(sessionKey)))
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) emitTelemetry(r *http.Request, severity telemetry.Severity, name, detail string) {
	if err := s.telemetry.Emit(r.Context(), severity, name, detail); err != nil {
		s.logf("telemetry %s: %v", name, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
