package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// streamPollInterval is how often the job stream re-reads the queue.
const streamPollInterval = time.Second

// handleJobStream streams job state as server-sent events: one "snapshot"
// event with the full job list on connect, then a "job" event for every job
// whose state changed since the previous poll, until the client disconnects.
func (s *Server) handleJobStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	emit := func(event string, v any) bool {
		payload, err := json.Marshal(v)
		if err != nil {
			return false
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	seen := make(map[string]time.Time)
	snapshot := s.svc.Queue().List()
	for _, job := range snapshot {
		seen[job.ID] = job.UpdatedAt
	}
	if !emit("snapshot", snapshot) {
		return
	}

	ticker := time.NewTicker(streamPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			for _, job := range s.svc.Queue().List() {
				if last, ok := seen[job.ID]; ok && last.Equal(job.UpdatedAt) {
					continue
				}
				seen[job.ID] = job.UpdatedAt
				if !emit("job", job) {
					return
				}
			}
		}
	}
}
