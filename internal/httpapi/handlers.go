package httpapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"vidsum/internal/jobs"
)

type enqueueRequest struct {
	SubtitleFile string `json:"subtitle_file"`
	VideoFile    string `json:"video_file"`
	SubjectID    string `json:"subject_id"`
	SourceURL    string `json:"source_url"`
	Language     string `json:"language"`
	MaxFrames    int    `json:"max_frames"`
	RefreshCache bool   `json:"refresh_cache"`
}

func (s *Server) handleEnqueueSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SubtitleFile == "" {
		writeError(w, http.StatusBadRequest, "subtitle_file is required")
		return
	}

	job, created := s.svc.Enqueue("api", jobs.JobPayload{
		SubtitleFile: req.SubtitleFile,
		VideoFile:    req.VideoFile,
		SubjectID:    req.SubjectID,
		SourceURL:    req.SourceURL,
		Language:     req.Language,
		MaxFrames:    req.MaxFrames,
		RefreshCache: req.RefreshCache,
	})

	status := http.StatusAccepted
	if !created {
		status = http.StatusOK
	}
	writeJSON(w, status, job)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Queue().List())
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	id = strings.TrimSuffix(id, "/")
	if decoded, err := url.PathUnescape(id); err == nil {
		id = decoded
	}
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing job id")
		return
	}

	job, ok := s.svc.Queue().Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleSubjectResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// /api/subjects/{id}/result
	path := strings.TrimPrefix(r.URL.Path, "/api/subjects/")
	if !strings.HasSuffix(path, "/result") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	subjectID := strings.TrimSuffix(path, "/result")
	subjectID = strings.TrimSuffix(subjectID, "/")
	if decoded, err := url.PathUnescape(subjectID); err == nil {
		subjectID = decoded
	}
	if subjectID == "" {
		writeError(w, http.StatusBadRequest, "missing subject id")
		return
	}

	entry, ok := s.svc.Cache().LoadLatest(subjectID)
	if !ok {
		writeError(w, http.StatusNotFound, "no result for subject")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
