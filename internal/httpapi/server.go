// Package httpapi exposes the job queue and result cache over REST plus an
// SSE job stream.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"vidsum/internal/service"
)

type Server struct {
	svc *service.Service

	mux    *http.ServeMux
	server *http.Server
}

func NewServer(svc *service.Service) *Server {
	s := &Server{
		svc: svc,
		mux: http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/summaries", s.handleEnqueueSummary)
	s.mux.HandleFunc("/api/jobs", s.handleListJobs)
	s.mux.HandleFunc("/api/jobs/stream", s.handleJobStream)
	s.mux.HandleFunc("/api/jobs/", s.handleGetJob)
	s.mux.HandleFunc("/api/subjects/", s.handleSubjectResult)
	s.mux.HandleFunc("/health", s.handleHealth)
}
