// Package stream serves GET /api/stream: a Server-Sent Events feed of the
// realtime hub, one named event per committed change.
package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/slotdesk/slotdesk/internal/app/realtime"
	"go.uber.org/zap"
)

// heartbeatInterval spaces the comment frames that keep proxies from
// closing an idle stream.
const heartbeatInterval = 25 * time.Second

// Handler bridges hub subscriptions onto SSE connections.
type Handler struct {
	hub *realtime.Hub
	log *zap.Logger
}

// NewHandler constructs a stream Handler.
func NewHandler(hub *realtime.Hub, logger *zap.Logger) *Handler {
	return &Handler{hub: hub, log: logger}
}

// Serve handles GET /api/stream. Each connection gets its own hub
// subscription; delivery is best-effort with no replay, so clients should
// refetch list state after reconnecting.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	subID := uuid.NewString()
	events := h.hub.Subscribe(subID)
	defer h.hub.Unsubscribe(subID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// An initial comment confirms the stream is open before any event
	// arrives.
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		case ev, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(ev.Payload)
			if err != nil {
				h.log.Warn("dropping unmarshalable stream payload",
					zap.String("event", ev.Name), zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, data)
			flusher.Flush()
		}
	}
}
