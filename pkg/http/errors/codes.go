package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeForbidden              = "forbidden"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeTokenExpired           = "token_expired"
	ErrCodeAuthenticationRequired = "authentication_required"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMalformedAnswer  = "malformed_answer"

	// Resource errors
	ErrCodeNotFound        = "not_found"
	ErrCodeTestNotFound    = "test_not_found"
	ErrCodeAttemptNotFound = "attempt_not_found"
	ErrCodeQuestionUnknown = "unknown_question"
	ErrCodeResultNotFound  = "result_not_found"
	ErrCodeConflict        = "conflict"

	// Assessment lifecycle errors
	ErrCodeNoQuestions       = "no_questions"
	ErrCodeInvalidTransition = "invalid_transition"
	ErrCodeNotInProgress     = "not_in_progress"
	ErrCodeAlreadySubmitted  = "already_submitted"

	// Generation errors
	ErrCodeNoQuestionsGenerated = "no_questions_generated"
	ErrCodeGenerationFailed     = "generation_failed"
	ErrCodeQueueFull            = "queue_full"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
	ErrCodeUpstreamError      = "upstream_error"
)
