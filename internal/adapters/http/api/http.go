// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/okian/clanboard/internal/domain/model"
	"github.com/okian/clanboard/internal/domain/types"
	"github.com/okian/clanboard/pkg/logger"
	"github.com/rs/cors"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RunAssessment(ctx context.Context, req model.AssessmentRequest) (types.AssessmentResponse, error)
	Enqueue(ctx context.Context, req model.AssessmentRequest) (string, error)
	JobStatus(ctx context.Context, id string) (types.JobStatus, error)
	LatestAssessment(ctx context.Context, clanTag string, runType model.RunType) (types.AssessmentResponse, error)
	Assessment(ctx context.Context, runID string) (types.AssessmentResponse, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	assessments *AssessmentHandler
	ops         *OpsHandler

	origins []string
	timeout time.Duration
	logger  logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		origins: []string{"*"},
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}
	s.assessments = NewAssessmentHandler(deps, s.logger)
	s.ops = NewOpsHandler(statsProvider)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.ops.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.ops.HandleMetrics)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.ops.HandleStats, "stats"))

	a := s.assessments
	mux.HandleFunc("POST /api/v2/leadership/assessments",
		MetricsMiddleware(TimeoutMiddleware(a.HandleCreate, s.timeout), "assessments_create"))
	mux.HandleFunc("GET /api/v2/leadership/assessments/latest",
		MetricsMiddleware(a.HandleLatest, "assessments_latest"))
	mux.HandleFunc("GET /api/v2/leadership/assessments/{runID}",
		MetricsMiddleware(a.HandleGet, "assessments_get"))
	mux.HandleFunc("GET /api/v2/leadership/jobs/{jobID}",
		MetricsMiddleware(a.HandleJob, "jobs_get"))
}

// Handler wraps next with the CORS policy.
func (s *Server) Handler(next http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         600,
	})
	return c.Handler(next)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
