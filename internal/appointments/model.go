// Package appointments implements slot booking: minute-granularity slot
// locks, a two-phase conflict check, and appointment lifecycle management.
package appointments

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Appointment statuses.
const (
	StatusPending   = "pending"
	StatusCancelled = "cancelled"
)

var (
	// ErrNotFound means no appointment exists with the given ID.
	ErrNotFound = errors.New("appointments: appointment not found")
	// ErrAlreadyCancelled means the appointment was cancelled earlier.
	ErrAlreadyCancelled = errors.New("appointments: appointment already cancelled")
	// ErrSlotTaken means the requested time slot has a live booking.
	ErrSlotTaken = errors.New("appointments: time slot already booked")
	// ErrNotConfigured means no storage backend is wired.
	ErrNotConfigured = errors.New("appointments: storage is not configured")
)

// Appointment is one booked slot.
type Appointment struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Time        string `json:"time"`
	Status      string `json:"status"`
	CreatedAt   int64  `json:"created_at"`
	Username    string `json:"username"`
	BotID       string `json:"bot_id"`
	SessionID   string `json:"session_id"`
	ContactName string `json:"contact_name"`
	AssignedTo  string `json:"assigned_to"`
	CancelledBy string `json:"cancelled_by,omitempty"`
	CancelledAt int64  `json:"cancelled_at,omitempty"`
}

// NewID builds an appointment ID of the form APT-<unixts>-<rand8hex>.
func NewID(now time.Time) string {
	u := uuid.New()
	return fmt.Sprintf("APT-%d-%s", now.Unix(), hex.EncodeToString(u[:4]))
}

// SlotKey formats the minute-granularity UTC slot key, e.g. 20250829-1630.
func SlotKey(t time.Time) string {
	return t.UTC().Format("20060102-1504")
}

// ParseTime parses an ISO-8601 timestamp and normalizes it to UTC. A
// trailing Z or explicit offset is honored; offset-less strings are taken
// as already UTC.
func ParseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("appointments: time is required")
	}

	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("appointments: invalid time format %q", value)
}
