package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lab1702/subwar/events"
)

// handleStream opens a long-lived SSE connection for the authenticated
// user, replaying their bounded queue as it fills and sending a
// keepalive "ping" every KeepaliveS seconds.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, newError(KindUnauthorized, "missing API key"))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, newError(KindInternal, "streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.metrics.activeStreams.Inc()
	defer s.metrics.activeStreams.Dec()

	q := s.Fabric.Subscribe(user.ID)
	writeEvent(w, events.Event{Kind: events.KindHello, Data: events.Hello{UserID: user.ID, Time: events.UnixSeconds(time.Now())}})
	flusher.Flush()

	keepalive := time.NewTicker(time.Duration(s.Cfg.Events.KeepaliveS * float64(time.Second)))
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-q.C():
			writeEvent(w, ev)
			flusher.Flush()
		case <-keepalive.C:
			writeEvent(w, events.Event{Kind: events.KindPing, Data: events.Keepalive{Time: events.UnixSeconds(time.Now())}})
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, ev events.Event) {
	body, err := json.Marshal(ev.Data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, body)
}
