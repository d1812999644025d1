package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/okian/clanboard/internal/domain/model"
	"github.com/okian/clanboard/pkg/logger"
)

// AssessmentHandler serves the leadership assessment routes.
type AssessmentHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewAssessmentHandler creates a new assessment handler.
func NewAssessmentHandler(deps Dependencies, l logger.Logger) *AssessmentHandler {
	return &AssessmentHandler{deps: deps, logger: l}
}

type jobAccepted struct {
	JobID string `json:"jobId"`
}

// HandleCreate handles POST /api/v2/leadership/assessments.
// With ?async=true the run is queued and 202 carries the job id.
func (h *AssessmentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req model.AssessmentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		h.fail(w, r, badRequest(err))
		return
	}

	async := false
	if v := r.URL.Query().Get("async"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			h.fail(w, r, badRequest(err))
			return
		}
		async = b
	}

	if async {
		id, err := h.deps.Enqueue(r.Context(), req)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, jobAccepted{JobID: id})
		return
	}

	resp, err := h.deps.RunAssessment(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleLatest handles GET /api/v2/leadership/assessments/latest?clanTag=&runType=.
func (h *AssessmentHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tag := q.Get("clanTag")
	if tag == "" {
		h.fail(w, r, badRequest(errors.New("missing clanTag")))
		return
	}
	resp, err := h.deps.LatestAssessment(r.Context(), tag, model.RunType(q.Get("runType")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /api/v2/leadership/assessments/{runID}.
func (h *AssessmentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	resp, err := h.deps.Assessment(r.Context(), r.PathValue("runID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleJob handles GET /api/v2/leadership/jobs/{jobID}.
func (h *AssessmentHandler) HandleJob(w http.ResponseWriter, r *http.Request) {
	st, err := h.deps.JobStatus(r.Context(), r.PathValue("jobID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *AssessmentHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path), logger.String("code", code), logger.Error(err))
	}
	writeError(w, status, code, err)
}
