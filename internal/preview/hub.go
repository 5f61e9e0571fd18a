// Package preview pushes the path collection to attached preview viewers
// over server-sent events.
package preview

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/vrcdolly/dolly-agent/internal/dolly"
)

const (
	clientBuffer      = 8
	keepAliveInterval = 25 * time.Second
)

// Frame is one update sent to viewers.
type Frame struct {
	Seq   uint64       `json:"seq"`
	Paths []dolly.Path `json:"paths"`
}

// Hub fans collection changes out to viewers. A slow viewer drops
// intermediate frames; it always keeps the newest.
type Hub struct {
	mu      sync.Mutex
	clients map[chan []byte]struct{}
	current func() []dolly.Path
	seq     uint64
	logger  *slog.Logger
}

// NewHub returns a hub that reads the collection from current when a viewer
// attaches. current may be nil.
func NewHub(current func() []dolly.Path, logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[chan []byte]struct{}),
		current: current,
		logger:  logger,
	}
}

// HasViewers reports whether at least one viewer is attached.
func (h *Hub) HasViewers() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients) > 0
}

// Publish sends paths to every attached viewer. It does nothing when no
// viewer is attached.
func (h *Hub) Publish(paths []dolly.Path) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	if len(h.clients) == 0 {
		return
	}
	data, ok := h.encode(paths)
	if !ok {
		return
	}
	for ch := range h.clients {
		deliver(ch, data)
	}
}

// Attach registers a viewer. The channel receives the current collection
// right away, then one frame per Publish. detach closes the channel.
func (h *Hub) Attach() (frames <-chan []byte, detach func()) {
	ch := make(chan []byte, clientBuffer)

	var paths []dolly.Path
	if h.current != nil {
		paths = h.current()
	}

	h.mu.Lock()
	h.clients[ch] = struct{}{}
	if h.current != nil {
		if data, ok := h.encode(paths); ok {
			ch <- data
		}
	}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) encode(paths []dolly.Path) ([]byte, bool) {
	if paths == nil {
		paths = []dolly.Path{}
	}
	data, err := json.Marshal(Frame{Seq: h.seq, Paths: paths})
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to encode preview frame", "error", err)
		}
		return nil, false
	}
	return data, true
}

func deliver(ch chan []byte, data []byte) {
	select {
	case ch <- data:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- data:
	default:
	}
}

// ServeHTTP streams frames as server-sent events until the client leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	frames, detach := h.Attach()
	defer detach()

	if h.logger != nil {
		h.logger.Debug("preview viewer attached", "remote", r.RemoteAddr)
	}

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case data := <-frames:
			if _, err := fmt.Fprintf(w, "event: paths\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
