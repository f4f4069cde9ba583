package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// sseKeepAlive is how often a comment line is written to detect dead
// connections behind proxies that never send a FIN.
const sseKeepAlive = 25 * time.Second

// streamEvents serves a Server-Sent Events stream of change notices for one
// session. Each event names the table that changed; clients re-fetch the
// affected resource. Notices coalesce under load, so a client may see one
// event for several writes, never zero.
func (h *Handlers) streamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming unsupported"})
		return
	}

	view, err := h.sessions.GetSession(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		respondError(w, err)
		return
	}

	changes, cancel := h.hub.Subscribe(view.Session.ID)
	defer cancel()
	slog.Debug("event stream opened",
		"code", view.Session.Code,
		"subscribers", h.hub.SubscriberCount(view.Session.ID))

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: connected\ndata: %s\n\n", view.Session.Code)
	flusher.Flush()

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case change := <-changes:
			fmt.Fprintf(w, "event: change\ndata: {\"table\":%q}\n\n", change.Table)
			flusher.Flush()
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}
