package mcp

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"sync"
	"time"

	"github.com/foomo/confluence-export/errdefs"
	"github.com/foomo/confluence-export/service"
	"github.com/foomo/confluence-export/service/vo"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	EventConnected      = "connected"
	EventKeepalive      = "keepalive"
	EventExportStart    = "export_start"
	EventExportResult   = "export_result"
	EventExportError    = "export_error"
	EventExportComplete = "export_complete"
)

// SSEEvent represents an SSE event structure
type SSEEvent struct {
	ID        string    `json:"id"`
	Event     string    `json:"event"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

func newEvent(name string, data any) SSEEvent {
	return SSEEvent{
		ID:        uuid.NewString(),
		Event:     name,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// writeEvent formats event as SSE and flushes it.
func writeEvent(w http.ResponseWriter, flusher http.Flusher, event SSEEvent) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", event.ID, event.Event, eventJSON); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	flusher.Flush()
	return nil
}

func setStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

// HubConfig holds configuration for the progress hub
type HubConfig struct {
	KeepaliveInterval time.Duration
	BufferSize        int
}

func DefaultHubConfig() HubConfig {
	return HubConfig{
		KeepaliveInterval: 30 * time.Second,
		BufferSize:        100,
	}
}

type subscriber struct {
	id        string
	events    chan SSEEvent
	connected time.Time
}

// Hub fans export progress out to every subscribed SSE client.
type Hub struct {
	l       *zap.Logger
	config  HubConfig
	mu      sync.RWMutex
	clients map[string]*subscriber
}

func NewHub(l *zap.Logger, config HubConfig) *Hub {
	if l == nil {
		l = zap.NewNop()
	}
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultHubConfig().BufferSize
	}
	if config.KeepaliveInterval <= 0 {
		config.KeepaliveInterval = DefaultHubConfig().KeepaliveInterval
	}
	return &Hub{
		l:       l,
		config:  config,
		clients: map[string]*subscriber{},
	}
}

// Publish sends event to all subscribers. Clients with a full buffer miss it.
func (h *Hub) Publish(event SSEEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.events <- event:
		default:
			h.l.Warn("subscriber buffer full, dropping event", zap.String("clientID", client.id), zap.String("eventID", event.ID))
		}
	}
}

func (h *Hub) subscribe() *subscriber {
	client := &subscriber{
		id:        uuid.NewString(),
		events:    make(chan SSEEvent, h.config.BufferSize),
		connected: time.Now(),
	}
	h.mu.Lock()
	h.clients[client.id] = client
	h.mu.Unlock()
	h.l.Info("SSE client connected", zap.String("clientID", client.id))
	return client
}

func (h *Hub) unsubscribe(client *subscriber) {
	h.mu.Lock()
	delete(h.clients, client.id)
	h.mu.Unlock()
	h.l.Info("SSE client disconnected", zap.String("clientID", client.id))
}

type ClientInfo struct {
	ID          string    `json:"id"`
	ConnectedAt time.Time `json:"connectedAt"`
}

func (h *Hub) Clients() []ClientInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := make([]ClientInfo, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, ClientInfo{ID: client.id, ConnectedAt: client.connected})
	}
	return clients
}

// HandleSSE streams every published event until the client goes away.
func (h *Hub) HandleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	setStreamHeaders(w)
	w.Header().Set("Access-Control-Allow-Origin", "*")

	client := h.subscribe()
	defer h.unsubscribe(client)

	if err := writeEvent(w, flusher, newEvent(EventConnected, map[string]string{"clientID": client.id})); err != nil {
		h.l.Error("failed to send connection event", zap.String("clientID", client.id), zap.Error(err))
		return
	}

	ticker := time.NewTicker(h.config.KeepaliveInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		var event SSEEvent
		select {
		case <-ctx.Done():
			return
		case event = <-client.events:
		case <-ticker.C:
			event = newEvent(EventKeepalive, map[string]any{"timestamp": time.Now()})
		}
		if err := writeEvent(w, flusher, event); err != nil {
			h.l.Error("failed to send event to client", zap.String("clientID", client.id), zap.Error(err))
			return
		}
	}
}

type ExportStreamRequest struct {
	SpaceKey    string   `json:"spaceKey"`
	OutputDir   string   `json:"outputDir"`
	Ignore      []string `json:"ignore"`
	Concurrency int      `json:"concurrency"`
	FrontMatter *bool    `json:"frontMatter"`
}

// ExportStream runs an export per request and streams its progress back.
type ExportStream struct {
	l        *zap.Logger
	svc      service.Service
	defaults Defaults
	hub      *Hub
}

func NewExportStream(l *zap.Logger, svc service.Service, defaults Defaults, hub *Hub) *ExportStream {
	if l == nil {
		l = zap.NewNop()
	}
	return &ExportStream{l: l, svc: svc, defaults: defaults, hub: hub}
}

func (s *ExportStream) options(request ExportStreamRequest) (service.Options, error) {
	outputDir, err := resolveOutputDir(s.defaults.OutputDir, request.OutputDir)
	if err != nil {
		return service.Options{}, err
	}
	opts := service.Options{
		SpaceKey:      request.SpaceKey,
		OutputDir:     outputDir,
		IgnoreFilters: request.Ignore,
		Concurrency:   request.Concurrency,
		FrontMatter:   s.defaults.FrontMatter,
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = s.defaults.Concurrency
	}
	if request.FrontMatter != nil {
		opts.FrontMatter = *request.FrontMatter
	}
	return opts, nil
}

// HandleExportSSE handles export requests via SSE. Only JSON bodies are
// accepted.
func (s *ExportStream) HandleExportSSE(w http.ResponseWriter, r *http.Request) {
	if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mediaType != "application/json" {
		http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return
	}
	var request ExportStreamRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if request.SpaceKey == "" {
		http.Error(w, "spaceKey is required", http.StatusBadRequest)
		return
	}
	opts, err := s.options(request)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := service.ValidateFilters(opts.IgnoreFilters); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}
	setStreamHeaders(w)

	send := func(event SSEEvent) {
		if s.hub != nil {
			s.hub.Publish(event)
		}
		if err := writeEvent(w, flusher, event); err != nil {
			s.l.Debug("failed to stream event", zap.String("event", event.Event), zap.Error(err))
		}
	}

	send(newEvent(EventExportStart, map[string]any{
		"spaceKey":  opts.SpaceKey,
		"outputDir": opts.OutputDir,
		"ignore":    opts.IgnoreFilters,
	}))

	opts.Progress = func(e vo.ProgressEvent) {
		send(newEvent(string(e.Kind), e))
	}
	summary, err := s.svc.ExportSpace(r.Context(), opts)
	if err != nil {
		s.l.Error("export failed", zap.String("spaceKey", opts.SpaceKey), zap.Error(err))
		e := errdefs.Ensure(err)
		payload := map[string]any{
			"error": err.Error(),
			"type":  string(e.Type),
		}
		if e.StatusCode != 0 {
			payload["statusCode"] = e.StatusCode
		}
		send(newEvent(EventExportError, payload))
		send(newEvent(EventExportComplete, map[string]string{"status": "failed"}))
		return
	}

	send(newEvent(EventExportResult, map[string]any{
		"summary":  summary,
		"markdown": service.FormatSummary(summary),
	}))
	send(newEvent(EventExportComplete, map[string]string{"status": "completed"}))
}
