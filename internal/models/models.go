// Package models defines core data structures for go-portfolio
package models

// Item is the sole domain entity. ID is assigned by the item store.
type Item struct {
	ID          int64  `json:"id" db:"id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
}

// ItemInput is the body of a create request.
// Pointers tell a missing or null field apart from an empty string.
// A client supplied id is decoded and ignored.
type ItemInput struct {
	ID          *int64  `json:"id,omitempty"`
	Title       *string `json:"title" binding:"required"`
	Description *string `json:"description" binding:"required"`
}

// HealthResponse is returned by the liveness check
type HealthResponse struct {
	Status string `json:"status"`
}

// MessageResponse carries a plain confirmation
type MessageResponse struct {
	Message string `json:"message"`
}

// WelcomeResponse is served on / in development mode
type WelcomeResponse struct {
	Message string `json:"message"`
	Mode    string `json:"mode"`
}

// ErrorResponse is the body of every 404/405/500 error
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ValidationError describes one rejected input value
type ValidationError struct {
	Loc  []any  `json:"loc"` // e.g. ["body", "title"] or ["path", "item_id"]
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// ValidationErrorResponse is the body of a 422 response
type ValidationErrorResponse struct {
	Detail []ValidationError `json:"detail"`
}
