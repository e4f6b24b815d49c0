package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// handleEvents streams a job's live updates as server-sent events. The
// first event carries the subscription id; clients keep the stream
// alive by POSTing to /jobs/{job_id}/subscribers/{sub_id}/ping, which
// is answered with a pong event on the stream.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["job_id"]

	flusher, ok := w.(http.Flusher)
	if !ok {
		httpError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sub := s.hub.Subscribe(jobID)
	defer s.hub.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Subscription-Id", sub.ID)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case payload, open := <-sub.C:
			if !open {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// handlePing answers a subscriber's liveness ping
func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if !s.hub.Ping(vars["job_id"], vars["sub_id"]) {
		httpError(w, http.StatusNotFound, "unknown subscriber")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
