// Package escalation maps consecutive duress-trigger counts to alert
// severity and dispatch behavior. The policy is a pure function of the
// count; it holds no state.
package escalation

import (
	"time"

	"github.com/duressd/duressd/pkg/model"
)

// DispatchKind is the notification behavior a level requires.
type DispatchKind int

const (
	DispatchNone DispatchKind = iota
	DispatchDelayed
	DispatchImmediate
)

// Policy holds the tunable parameters of the escalation contract.
type Policy struct {
	// DelayedDelay is how long a level-2 alert waits before delivery.
	DelayedDelay time.Duration
}

// Default returns the reference policy: 2 hour delayed-alert window.
func Default() Policy {
	return Policy{DelayedDelay: 2 * time.Hour}
}

// LevelFor returns the escalation level for a consecutive duress count.
// The thresholds are the observable contract: 1 is silent, 2 schedules
// a delayed alert, 3 or more alerts immediately.
func LevelFor(count int) model.EscalationLevel {
	switch {
	case count <= 0:
		return model.LevelNone
	case count == 1:
		return model.LevelSilent
	case count == 2:
		return model.LevelDelayed
	default:
		return model.LevelImmediate
	}
}

// Decision is the action set required for one duress classification.
type Decision struct {
	Level    model.EscalationLevel
	Dispatch DispatchKind
	Delay    time.Duration
}

// Decide returns the required actions for the given count.
func (p Policy) Decide(count int) Decision {
	level := LevelFor(count)
	d := Decision{Level: level}
	switch level {
	case model.LevelDelayed:
		d.Dispatch = DispatchDelayed
		d.Delay = p.DelayedDelay
	case model.LevelImmediate:
		d.Dispatch = DispatchImmediate
	}
	return d
}
