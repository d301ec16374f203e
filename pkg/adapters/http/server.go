package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/tgflow"
	"github.com/aretw0/tgflow/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Bot is the part of a running bot the admin API needs.
type Bot interface {
	Conversations() []domain.ConversationID
	State(id domain.ConversationID) domain.State
	Reset(ctx context.Context, id domain.ConversationID) error
	Forget(id domain.ConversationID) bool
	PendingWaits() int
}

// Server serves the admin API of a bot.
type Server struct {
	Bot     Bot
	Streams *StreamManager
	metrics http.Handler
	logger  *slog.Logger
	redact  []*regexp.Regexp
}

// Option configures a Server.
type Option func(*Server)

// WithMetricsHandler replaces the default promhttp handler served on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates an admin server for bot.
func NewServer(bot Bot, opts ...Option) *Server {
	s := &Server{
		Bot:     bot,
		Streams: NewStreamManager(),
		metrics: promhttp.Handler(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger
	return s
}

// NewHandler creates the admin HTTP handler for bot.
func NewHandler(bot Bot, opts ...Option) http.Handler {
	return NewServer(bot, opts...).Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/events", s.SubscribeEvents)
	r.Handle("/metrics", s.metrics)

	r.Route("/conversations", func(r chi.Router) {
		r.Get("/", s.ListConversations)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetConversation)
			r.Delete("/", s.DeleteConversation)
			r.Post("/reset", s.ResetConversation)
		})
	})
	return r
}

// GetHealth handles the GET /healthz request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"app":           "tgflow",
		"version":       strings.TrimSpace(tgflow.Version),
		"conversations": len(s.Bot.Conversations()),
		"pending_waits": s.Bot.PendingWaits(),
	})
}

type conversationSummary struct {
	ID       domain.ConversationID `json:"id"`
	DialogID string                `json:"dialog_id"`
	Waiting  bool                  `json:"waiting"`
}

// ListConversations handles the GET /conversations request.
func (s *Server) ListConversations(w http.ResponseWriter, r *http.Request) {
	ids := s.Bot.Conversations()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]conversationSummary, 0, len(ids))
	for _, id := range ids {
		st := s.Bot.State(id)
		out = append(out, conversationSummary{ID: id, DialogID: st.CurrentDialogID, Waiting: st.Wait != nil})
	}
	writeJSON(w, http.StatusOK, out)
}

// GetConversation handles the GET /conversations/{id} request.
func (s *Server) GetConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := s.conversation(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.redacted(s.Bot.State(id)))
}

// ResetConversation handles the POST /conversations/{id}/reset request.
func (s *Server) ResetConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := s.conversation(w, r)
	if !ok {
		return
	}
	if err := s.Bot.Reset(r.Context(), id); err != nil {
		http.Error(w, fmt.Sprintf("Reset error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Reset failed", "conversation", int64(id), "err", err)
		return
	}
	writeJSON(w, http.StatusOK, s.redacted(s.Bot.State(id)))
}

// DeleteConversation handles the DELETE /conversations/{id} request.
func (s *Server) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !s.Bot.Forget(id) {
		http.Error(w, "Conversation not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) conversation(w http.ResponseWriter, r *http.Request) (domain.ConversationID, bool) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return 0, false
	}
	for _, known := range s.Bot.Conversations() {
		if known == id {
			return id, true
		}
	}
	http.Error(w, "Conversation not found", http.StatusNotFound)
	return 0, false
}

func parseID(r *http.Request) (domain.ConversationID, error) {
	raw := chi.URLParam(r, "id")
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid conversation id %q", raw)
	}
	return domain.ConversationID(n), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Hooks returns lifecycle hooks that publish dialog changes and resolved
// waits to /events subscribers.
func (s *Server) Hooks() domain.LifecycleHooks {
	publish := func(id domain.ConversationID, v any) {
		b, err := json.Marshal(v)
		if err != nil {
			s.logger.Warn("SSE: failed to encode event", "err", err)
			return
		}
		s.Streams.Broadcast(id, string(b))
	}
	return domain.LifecycleHooks{
		OnDialogEnter: func(_ context.Context, e *domain.DialogEvent) {
			publish(e.Conversation, e)
		},
		OnWaitResolved: func(_ context.Context, e *domain.WaitEvent) {
			publish(e.Conversation, e)
		},
	}
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{}
	logger      *slog.Logger
}

const allConversations = "*"

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func streamKey(id *domain.ConversationID) string {
	if id == nil {
		return allConversations
	}
	return strconv.FormatInt(int64(*id), 10)
}

// Subscribe registers a channel for one conversation, or for all of them when id is nil.
func (sm *StreamManager) Subscribe(id *domain.ConversationID) (chan string, func()) {
	key := streamKey(id)

	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[key]; !ok {
		sm.subscribers[key] = make(map[chan<- string]struct{})
	}
	sm.subscribers[key][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[key]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, key)
			}
		}
	}
}

// Subscribers returns the number of open subscriptions.
func (sm *StreamManager) Subscribers() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	n := 0
	for _, subs := range sm.subscribers {
		n += len(subs)
	}
	return n
}

// Broadcast delivers msg to the subscribers of id and to global subscribers.
func (sm *StreamManager) Broadcast(id domain.ConversationID, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for _, key := range []string{streamKey(&id), allConversations} {
		for ch := range sm.subscribers[key] {
			select {
			case ch <- msg:
			default:
				// Slow client.
				sm.logger.Warn("SSE: Client buffer full, dropping message", "conversation", int64(id))
			}
		}
	}
}

// SubscribeEvents handles the GET /events request (SSE). The optional
// conversation query parameter restricts the stream to one conversation.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	var filter *domain.ConversationID
	if raw := r.URL.Query().Get("conversation"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid conversation id %q", raw), http.StatusBadRequest)
			return
		}
		id := domain.ConversationID(n)
		filter = &id
	}

	ch, cancel := s.Streams.Subscribe(filter)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
