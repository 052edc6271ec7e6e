package attempt

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/talentquiz/internal/assessment"
	"github.com/gokatarajesh/talentquiz/internal/auth"
	"github.com/gokatarajesh/talentquiz/internal/auth/jwt"
	"github.com/gokatarajesh/talentquiz/internal/catalog"
	"github.com/gokatarajesh/talentquiz/internal/results"
	httperrors "github.com/gokatarajesh/talentquiz/pkg/http/errors"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// HTTPHandlers exposes attempt operations over REST.
type HTTPHandlers struct {
	manager   *Manager
	validator *catalog.Validator
	logger    zerolog.Logger
}

// NewHTTPHandlers creates handlers for attempt endpoints.
func NewHTTPHandlers(manager *Manager, validator *catalog.Validator, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		manager:   manager,
		validator: validator,
		logger:    logger.With().Str("component", "attempt_http").Logger(),
	}
}

// Register mounts the attempt routes on mux. The caller wraps mux with
// auth.AuthMiddleware.
func (h *HTTPHandlers) Register(mux *http.ServeMux) {
	authed := func(fn http.HandlerFunc) http.Handler { return auth.RequireAuth(fn) }
	candidate := func(fn http.HandlerFunc) http.Handler { return auth.RequireRole(jwt.RoleCandidate)(fn) }
	staff := func(fn http.HandlerFunc) http.Handler { return auth.RequireRole(jwt.RoleRecruiter, jwt.RoleAdmin)(fn) }

	mux.Handle("POST /v1/attempts", candidate(h.Create))
	mux.Handle("GET /v1/attempts/{id}", authed(h.Get))
	mux.Handle("POST /v1/attempts/{id}/start", authed(h.Start))
	mux.Handle("POST /v1/attempts/{id}/next", authed(h.Next))
	mux.Handle("POST /v1/attempts/{id}/previous", authed(h.Previous))
	mux.Handle("POST /v1/attempts/{id}/submit", authed(h.Submit))
	mux.Handle("PUT /v1/attempts/{id}/answers/{questionID}", authed(h.Answer))
	mux.Handle("DELETE /v1/attempts/{id}", authed(h.Abandon))
	mux.Handle("GET /v1/attempts/{id}/results", authed(h.Results))
	mux.Handle("GET /v1/attempts/{id}/results.xlsx", staff(h.ResultsXLSX))
	mux.Handle("GET /v1/candidates/{id}/submissions", authed(h.History))
}

// CreateAttemptRequest is the body of POST /v1/attempts.
type CreateAttemptRequest struct {
	TestID string `json:"test_id" validate:"required"`
}

// AnswerRequest is the body of PUT /v1/attempts/{id}/answers/{questionID}.
type AnswerRequest struct {
	Value json.RawMessage `json:"value"`
}

// Create handles POST /v1/attempts
func (h *HTTPHandlers) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	var req CreateAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.respondError(w, err)
		return
	}

	snap, err := h.manager.Create(r.Context(), req.TestID, claims.UserID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, snap)
}

// Get handles GET /v1/attempts/{id}
func (h *HTTPHandlers) Get(w http.ResponseWriter, r *http.Request) {
	h.candidateOp(w, r, func(id, candidateID string) (any, error) {
		return h.manager.Get(r.Context(), id, candidateID)
	})
}

// Start handles POST /v1/attempts/{id}/start
func (h *HTTPHandlers) Start(w http.ResponseWriter, r *http.Request) {
	h.candidateOp(w, r, func(id, candidateID string) (any, error) {
		return h.manager.Start(r.Context(), id, candidateID)
	})
}

// Next handles POST /v1/attempts/{id}/next
func (h *HTTPHandlers) Next(w http.ResponseWriter, r *http.Request) {
	h.candidateOp(w, r, func(id, candidateID string) (any, error) {
		return h.manager.Next(r.Context(), id, candidateID)
	})
}

// Previous handles POST /v1/attempts/{id}/previous
func (h *HTTPHandlers) Previous(w http.ResponseWriter, r *http.Request) {
	h.candidateOp(w, r, func(id, candidateID string) (any, error) {
		return h.manager.Previous(r.Context(), id, candidateID)
	})
}

// Answer handles PUT /v1/attempts/{id}/answers/{questionID}
func (h *HTTPHandlers) Answer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if len(req.Value) == 0 {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "value is required", "value")
		return
	}
	questionID := r.PathValue("questionID")
	h.candidateOp(w, r, func(id, candidateID string) (any, error) {
		return h.manager.Answer(r.Context(), id, candidateID, questionID, req.Value)
	})
}

// Submit handles POST /v1/attempts/{id}/submit
func (h *HTTPHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	sub, err := h.manager.Submit(r.Context(), r.PathValue("id"), claims.UserID)
	if errors.Is(err, assessment.ErrAlreadySubmitted) {
		httperrors.RespondErrorWithDetails(w, http.StatusConflict, httperrors.ErrCodeAlreadySubmitted, err.Error(), sub)
		return
	}
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sub)
}

// Abandon handles DELETE /v1/attempts/{id}
func (h *HTTPHandlers) Abandon(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}
	if err := h.manager.Abandon(r.Context(), r.PathValue("id"), claims.UserID); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Results handles GET /v1/attempts/{id}/results
func (h *HTTPHandlers) Results(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// ResultsXLSX handles GET /v1/attempts/{id}/results.xlsx
func (h *HTTPHandlers) ResultsXLSX(w http.ResponseWriter, r *http.Request) {
	report, ok := h.report(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="results-%s.xlsx"`, report.SubmissionID))
	if err := results.WriteXLSX(w, report); err != nil {
		h.logger.Error().Err(err).Str("submission_id", report.SubmissionID).Msg("xlsx export failed")
	}
}

// History handles GET /v1/candidates/{id}/submissions
func (h *HTTPHandlers) History(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}
	candidateID := r.PathValue("id")
	if candidateID != claims.UserID && !isStaff(claims) {
		httperrors.RespondForbidden(w, httperrors.ErrCodeForbidden, "Cannot read another candidate's history")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "limit must be between 1 and 200", "limit")
			return
		}
		limit = n
	}

	subs, err := h.manager.History(r.Context(), candidateID, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"submissions": subs})
}

func (h *HTTPHandlers) report(w http.ResponseWriter, r *http.Request) (results.Report, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return results.Report{}, false
	}
	report, err := h.manager.Result(r.Context(), r.PathValue("id"), Actor{UserID: claims.UserID, Staff: isStaff(claims)})
	if err != nil {
		h.respondError(w, err)
		return results.Report{}, false
	}
	return report, true
}

func (h *HTTPHandlers) candidateOp(w http.ResponseWriter, r *http.Request, op func(id, candidateID string) (any, error)) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}
	out, err := op(r.PathValue("id"), claims.UserID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *HTTPHandlers) respondError(w http.ResponseWriter, err error) {
	var (
		malformed *assessment.MalformedAnswerError
		verrs     assessment.ValidationErrors
	)
	switch {
	case errors.As(err, &verrs):
		httperrors.RespondErrorWithDetails(w, http.StatusBadRequest, httperrors.ErrCodeValidationFailed, "Validation failed", verrs)
	case errors.As(err, &malformed):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeMalformedAnswer, malformed.Error())
	case errors.Is(err, ErrAttemptNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeAttemptNotFound, err.Error())
	case errors.Is(err, ErrAttemptForbidden):
		httperrors.RespondForbidden(w, httperrors.ErrCodeForbidden, err.Error())
	case errors.Is(err, ErrResultNotReady):
		httperrors.RespondConflict(w, httperrors.ErrCodeResultNotFound, err.Error())
	case errors.Is(err, catalog.ErrTestNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeTestNotFound, err.Error())
	case errors.Is(err, assessment.ErrNoQuestions):
		httperrors.RespondError(w, http.StatusUnprocessableEntity, httperrors.ErrCodeNoQuestions, err.Error())
	case errors.Is(err, assessment.ErrUnknownQuestion):
		httperrors.RespondNotFound(w, httperrors.ErrCodeQuestionUnknown, err.Error())
	case errors.Is(err, assessment.ErrInvalidTransition):
		httperrors.RespondConflict(w, httperrors.ErrCodeInvalidTransition, err.Error())
	case errors.Is(err, assessment.ErrNotInProgress):
		httperrors.RespondConflict(w, httperrors.ErrCodeNotInProgress, err.Error())
	default:
		h.logger.Error().Err(err).Msg("attempt request failed")
		httperrors.RespondInternalError(w, "Internal server error")
	}
}

func isStaff(claims *jwt.Claims) bool {
	return claims.HasRole(jwt.RoleRecruiter, jwt.RoleAdmin)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
