// Package leads captures and stores visitor contact records.
package leads

import "errors"

var (
	// ErrValidation means the lead is missing a name or any contact method.
	ErrValidation = errors.New("leads: name and at least one contact method are required")
	// ErrNotConfigured means no storage backend is wired.
	ErrNotConfigured = errors.New("leads: storage is not configured")
)

// Lead is one captured visitor contact record.
type Lead struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Message    string `json:"message"`
	Source     string `json:"source"`
	CreatedAt  int64  `json:"created_at"`
	Username   string `json:"username"`
	Status     string `json:"status"`
	SessionID  string `json:"session_id"`
	AssignedTo string `json:"assigned_to"`
}
