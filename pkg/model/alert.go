package model

import "time"

// AlertSource identifies what confirmed the alert condition.
type AlertSource string

const (
	SourceAuth  AlertSource = "auth"
	SourceTimer AlertSource = "timer"
)

// AlertEvent is an immutable record of a condition that warranted
// notification. Events are appended to the activity log and never
// mutated after creation.
type AlertEvent struct {
	ID        string          `json:"id"`
	Username  string          `json:"username"`
	Level     EscalationLevel `json:"level"`
	Source    AlertSource     `json:"source"`
	Count     int             `json:"count,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
