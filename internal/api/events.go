package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// handleEvents streams board changes as Server-Sent Events until the client
// disconnects or the bus closes.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	bus := s.board.Bus()
	if bus == nil {
		respondError(w, http.StatusServiceUnavailable, "event stream not available")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	s.logger.Debug("event stream opened", slog.String("remote_addr", r.RemoteAddr))
	s.sendEvent(w, flusher, "connected", map[string]uint64{"revision": s.board.State().Revision})

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("event stream closed", slog.String("remote_addr", r.RemoteAddr))
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			s.sendEvent(w, flusher, ev.EventType(), ev)
		}
	}
}

// sendEvent writes one event in SSE framing: "event: type\ndata: json\n\n".
func (s *Server) sendEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("failed to marshal event", slog.String("type", eventType), slog.Any("error", err))
		return
	}
	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", payload)
	flusher.Flush()
}
