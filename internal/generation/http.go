package generation

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/talentquiz/internal/assessment"
	"github.com/gokatarajesh/talentquiz/internal/auth"
	"github.com/gokatarajesh/talentquiz/internal/auth/jwt"
	"github.com/gokatarajesh/talentquiz/internal/qcm"
	"github.com/gokatarajesh/talentquiz/internal/store"
	httperrors "github.com/gokatarajesh/talentquiz/pkg/http/errors"
)

// HTTPHandlers exposes parsing and generation over REST.
type HTTPHandlers struct {
	service *Service
	worker  *Worker
	logger  zerolog.Logger
}

// NewHTTPHandlers creates handlers for generation endpoints. worker may be
// nil, in which case async requests run inline.
func NewHTTPHandlers(service *Service, worker *Worker, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		service: service,
		worker:  worker,
		logger:  logger.With().Str("component", "generation_http").Logger(),
	}
}

// Register mounts the generation routes on mux.
func (h *HTTPHandlers) Register(mux *http.ServeMux) {
	staff := auth.RequireRole(jwt.RoleRecruiter, jwt.RoleAdmin)

	mux.Handle("POST /v1/qcm/parse", staff(http.HandlerFunc(h.Parse)))
	mux.Handle("GET /v1/qcm/questions", auth.RequireAuth(http.HandlerFunc(h.LastQuestions)))
	mux.Handle("POST /v1/jobs/{jobID}/tests/generate", auth.RequireAuth(http.HandlerFunc(h.Generate)))
}

// ParseRequest is the body of POST /v1/qcm/parse.
type ParseRequest struct {
	Text string `json:"text" validate:"required"`
}

// ParseResponse returns the parsed questions with block counts.
type ParseResponse struct {
	Questions []assessment.Question `json:"questions"`
	Report    qcm.Report            `json:"report"`
}

// Parse handles POST /v1/qcm/parse
func (h *HTTPHandlers) Parse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if err := h.service.validator.Struct(req); err != nil {
		h.respondError(w, err)
		return
	}

	questions, report := qcm.ParseWithReport(req.Text)
	h.service.metrics.ObserveParse(report.Blocks, report.Emitted, report.Dropped)
	respondJSON(w, http.StatusOK, ParseResponse{Questions: questions, Report: report})
}

// LastQuestions handles GET /v1/qcm/questions
func (h *HTTPHandlers) LastQuestions(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	questions, err := h.service.LastQuestions(r.Context(), claims.UserID)
	if errors.Is(err, store.ErrNotFound) {
		questions = []assessment.Question{}
	} else if err != nil {
		h.respondError(w, err)
		return
	}
	if !claims.HasRole(jwt.RoleRecruiter, jwt.RoleAdmin) {
		for i := range questions {
			questions[i] = questions[i].Public()
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"questions": questions})
}

// Generate handles POST /v1/jobs/{jobID}/tests/generate
func (h *HTTPHandlers) Generate(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	req.JobID = r.PathValue("jobID")
	req.UserID = claims.UserID

	if r.URL.Query().Get("async") == "true" && h.worker != nil {
		if err := h.service.validator.Struct(req); err != nil {
			h.respondError(w, err)
			return
		}
		if err := h.worker.Enqueue(req); err != nil {
			h.respondError(w, err)
			return
		}
		respondJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "job_id": req.JobID})
		return
	}

	test, err := h.service.Generate(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, test)
}

func (h *HTTPHandlers) respondError(w http.ResponseWriter, err error) {
	var verrs assessment.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		httperrors.RespondErrorWithDetails(w, http.StatusBadRequest, httperrors.ErrCodeValidationFailed, "Validation failed", verrs)
	case errors.Is(err, ErrNoQuestionsGenerated):
		httperrors.RespondError(w, http.StatusUnprocessableEntity, httperrors.ErrCodeNoQuestionsGenerated, err.Error())
	case errors.Is(err, ErrQueueFull):
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeQueueFull, err.Error())
	case errors.Is(err, ErrCompletionFailed):
		h.logger.Warn().Err(err).Msg("completion failed")
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeGenerationFailed, "Question generation failed")
	default:
		h.logger.Error().Err(err).Msg("generation request failed")
		httperrors.RespondInternalError(w, "Internal server error")
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
