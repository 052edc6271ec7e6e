package catalog

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/talentquiz/internal/assessment"
	"github.com/gokatarajesh/talentquiz/internal/auth"
	"github.com/gokatarajesh/talentquiz/internal/auth/jwt"
	httperrors "github.com/gokatarajesh/talentquiz/pkg/http/errors"
)

// HTTPHandlers exposes the test catalog over REST.
type HTTPHandlers struct {
	service *Service
	logger  zerolog.Logger
}

// NewHTTPHandlers creates handlers for catalog endpoints.
func NewHTTPHandlers(service *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		service: service,
		logger:  logger.With().Str("component", "catalog_http").Logger(),
	}
}

// Register mounts the catalog routes on mux.
func (h *HTTPHandlers) Register(mux *http.ServeMux) {
	staff := auth.RequireRole(jwt.RoleRecruiter, jwt.RoleAdmin)

	mux.Handle("GET /v1/tests", auth.RequireAuth(http.HandlerFunc(h.List)))
	mux.Handle("POST /v1/tests", staff(http.HandlerFunc(h.Create)))
	mux.Handle("GET /v1/tests/{id}", auth.RequireAuth(http.HandlerFunc(h.Get)))
	mux.Handle("POST /v1/tests/{id}/duplicate", staff(http.HandlerFunc(h.Duplicate)))
	mux.Handle("DELETE /v1/tests/{id}", staff(http.HandlerFunc(h.Delete)))
}

// TestResponse pairs a test with its question summary.
type TestResponse struct {
	Test    assessment.Test `json:"test"`
	Summary Summary         `json:"summary"`
}

// List handles GET /v1/tests?q=
func (h *HTTPHandlers) List(w http.ResponseWriter, r *http.Request) {
	tests, err := h.service.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	if !canSeeAnswers(r) {
		for i := range tests {
			tests[i] = publicTest(tests[i])
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"tests": tests, "count": len(tests)})
}

// Get handles GET /v1/tests/{id}
func (h *HTTPHandlers) Get(w http.ResponseWriter, r *http.Request) {
	test, err := h.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	summary := Summarize(test)
	if !canSeeAnswers(r) {
		test = publicTest(test)
	}
	respondJSON(w, http.StatusOK, TestResponse{Test: test, Summary: summary})
}

// Create handles POST /v1/tests
func (h *HTTPHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var test assessment.Test
	if err := json.NewDecoder(r.Body).Decode(&test); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	created, err := h.service.Create(r.Context(), test)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, TestResponse{Test: created, Summary: Summarize(created)})
}

// Duplicate handles POST /v1/tests/{id}/duplicate
func (h *HTTPHandlers) Duplicate(w http.ResponseWriter, r *http.Request) {
	dup, err := h.service.Duplicate(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, TestResponse{Test: dup, Summary: Summarize(dup)})
}

// Delete handles DELETE /v1/tests/{id}
func (h *HTTPHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandlers) respondError(w http.ResponseWriter, err error) {
	var verrs assessment.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		httperrors.RespondErrorWithDetails(w, http.StatusBadRequest, httperrors.ErrCodeValidationFailed, "Validation failed", verrs)
	case errors.Is(err, ErrTestNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeTestNotFound, err.Error())
	case errors.Is(err, ErrTestExists):
		httperrors.RespondConflict(w, httperrors.ErrCodeConflict, err.Error())
	default:
		h.logger.Error().Err(err).Msg("catalog request failed")
		httperrors.RespondInternalError(w, "Internal server error")
	}
}

func canSeeAnswers(r *http.Request) bool {
	claims, ok := auth.ClaimsFromContext(r.Context())
	return ok && claims.HasRole(jwt.RoleRecruiter, jwt.RoleAdmin)
}

func publicTest(t assessment.Test) assessment.Test {
	out := t
	out.Questions = make([]assessment.Question, len(t.Questions))
	for i, q := range t.Questions {
		out.Questions[i] = q.Public()
	}
	return out
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
