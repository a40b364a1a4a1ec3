package model

import "time"

// SwitchState is the lifecycle state of a dead-man's-switch.
type SwitchState string

const (
	SwitchArmed     SwitchState = "armed"
	SwitchPaused    SwitchState = "paused"
	SwitchTriggered SwitchState = "triggered"
)

// SwitchRecord is one dead-man's-switch. A record is created explicitly,
// mutated only through supervisor operations, and destroyed only by
// explicit deletion. SwitchTriggered is terminal: a new record must be
// created to resume monitoring.
type SwitchRecord struct {
	ID          string        `json:"id"`
	Username    string        `json:"username"`
	Interval    time.Duration `json:"interval"`
	LastCheckIn time.Time     `json:"last_check_in"`
	State       SwitchState   `json:"state"`
	CreatedAt   time.Time     `json:"created_at"`
	TriggeredAt *time.Time    `json:"triggered_at,omitempty"`
}

// Deadline returns the instant the switch trips if no further
// check-in arrives.
func (s *SwitchRecord) Deadline() time.Time {
	return s.LastCheckIn.Add(s.Interval)
}

// IsOverdue reports whether the check-in deadline has passed.
func (s *SwitchRecord) IsOverdue(now time.Time) bool {
	return !now.Before(s.Deadline())
}

// Status builds the caller-visible view of the record at now.
func (s *SwitchRecord) Status(now time.Time) SwitchStatus {
	st := SwitchStatus{
		Username:    s.Username,
		State:       s.State,
		Interval:    s.Interval,
		LastCheckIn: s.LastCheckIn,
		TriggeredAt: s.TriggeredAt,
	}
	if s.State == SwitchArmed {
		st.NextDeadline = s.Deadline()
		st.Remaining = st.NextDeadline.Sub(now)
		if st.Remaining < 0 {
			st.Remaining = 0
		}
	}
	return st
}

// SwitchStatus is the caller-visible view of a switch.
type SwitchStatus struct {
	Username     string        `json:"username"`
	State        SwitchState   `json:"state"`
	Interval     time.Duration `json:"interval"`
	LastCheckIn  time.Time     `json:"last_check_in"`
	NextDeadline time.Time     `json:"next_deadline"`
	Remaining    time.Duration `json:"remaining"`
	TriggeredAt  *time.Time    `json:"triggered_at,omitempty"`
}
