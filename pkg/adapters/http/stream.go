package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/shelfscan/internal/logging"
	"github.com/aretw0/shelfscan/pkg/domain"
)

// Event names sent on /events.
const (
	EventStatus = "status"
	EventNotice = "notice"
	EventDetect = "detect"
)

// Message is one server-sent event.
type Message struct {
	Event string
	Data  string
}

// StreamManager handles active SSE connections. It implements
// ports.Presenter, so it can be handed to the scanner directly.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan Message]struct{}
	logger      *slog.Logger
}

// NewStreamManager creates a broadcaster with no subscribers.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[chan Message]struct{}),
		logger:      logging.NewNop(),
	}
}

// SetLogger configures the logger used for dropped messages.
func (sm *StreamManager) SetLogger(logger *slog.Logger) {
	sm.logger = logger
}

// Subscribe registers a new client. The returned function unsubscribes it.
func (sm *StreamManager) Subscribe() (<-chan Message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Message, 16)
	sm.subscribers[ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if _, ok := sm.subscribers[ch]; ok {
			delete(sm.subscribers, ch)
			close(ch)
		}
	}
}

// Subscribers returns the number of connected clients.
func (sm *StreamManager) Subscribers() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}

// Broadcast sends v, JSON encoded, to every subscriber.
// Slow clients miss messages rather than stalling the scan loop.
func (sm *StreamManager) Broadcast(event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		sm.logger.Error("SSE: Failed to encode event", "event", event, "err", err)
		return
	}
	msg := Message{Event: event, Data: string(data)}

	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping message", "event", event)
		}
	}
}

// PresentStatus broadcasts a status report.
func (sm *StreamManager) PresentStatus(ctx context.Context, report domain.StatusReport) {
	sm.Broadcast(EventStatus, report)
}

// PresentNotice broadcasts a notice.
func (sm *StreamManager) PresentNotice(ctx context.Context, notice domain.Notice) {
	sm.Broadcast(EventNotice, notice)
}

// Hooks returns lifecycle hooks that broadcast detections.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnDetect: func(ctx context.Context, e *domain.DetectEvent) {
			sm.Broadcast(EventDetect, e)
		},
	}
}

// SubscribeEvents handles the GET /events request (SSE).
// The optional watch parameter filters event names, e.g. ?watch=detect,notice.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.Logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	var watch map[string]bool
	if raw := r.URL.Query().Get("watch"); raw != "" {
		watch = make(map[string]bool)
		for _, name := range strings.Split(raw, ",") {
			watch[strings.TrimSpace(name)] = true
		}
	}

	ch, cancel := s.Streams.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	if data, err := json.Marshal(s.Scanner.Snapshot()); err == nil && (watch == nil || watch[EventStatus]) {
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", EventStatus, data)
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Debug("SSE Client Disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if watch != nil && !watch[msg.Event] {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, msg.Data)
			flusher.Flush()
		}
	}
}
