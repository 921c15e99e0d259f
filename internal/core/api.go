// FILE: internal/core/api.go
package core

// Request types

type ControlRequest struct {
	Action string `json:"action" validate:"required,oneof=pause resume stop restart flip"`
}

type AnswerRequest struct {
	Text string `json:"text" validate:"max=2000"`
}

// Response types

type SessionResponse struct {
	SessionID   string   `json:"sessionId"`
	Timestamp   string   `json:"timestamp"`
	Phase       string   `json:"phase"`
	Turn        string   `json:"turn"` // "white" or "black"
	FEN         string   `json:"fen"`
	Moves       []string `json:"moves"`
	White       string   `json:"white"`
	Black       string   `json:"black"`
	Attempt     int      `json:"attempt"`
	MaxAttempts int      `json:"maxAttempts"`
	Paused      bool     `json:"paused"`
	Flipped     bool     `json:"flipped"`
	Reason      string   `json:"reason,omitempty"`
	Message     string   `json:"message,omitempty"`
	Pending     string   `json:"pending,omitempty"`
}

type BoardResponse struct {
	FEN   string `json:"fen"`
	Board string `json:"board"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// Error codes
const (
	ErrInvalidRequest    = "INVALID_REQUEST"
	ErrInvalidContent    = "INVALID_CONTENT"
	ErrNoSession         = "NO_SESSION"
	ErrNothingPending    = "NOTHING_PENDING"
	ErrRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrInternalError     = "INTERNAL_ERROR"
)
