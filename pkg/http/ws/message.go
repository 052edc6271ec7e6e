package ws

import "encoding/json"

// MessageType constants for the attempt feed.
const (
	// Client -> Server
	TypePing         = "ping"
	TypeRequestState = "request_state"

	// Server -> Client
	TypePong             = "pong"
	TypeAttemptState     = "attempt_state"
	TypeAttemptTick      = "attempt_tick"
	TypeAttemptCompleted = "attempt_completed"
	TypeError            = "error"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage encodes payload into a typed message.
func NewMessage(msgType string, payload any) (Message, error) {
	if payload == nil {
		return Message{Type: msgType}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Payload: raw}, nil
}

type AttemptTickPayload struct {
	AttemptID        string `json:"attempt_id"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

type AttemptCompletedPayload struct {
	AttemptID    string `json:"attempt_id"`
	SubmissionID string `json:"submission_id"`
	Reason       string `json:"reason"`
	Score        int    `json:"score"`
	MaxScore     int    `json:"max_score"`
	Percentage   int    `json:"percentage"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
