// Package metrics provides in-process operation counters for duressd.
package metrics

import (
	"sync/atomic"

	"github.com/duressd/duressd/pkg/model"
)

// Registry holds duressd operation counters. All methods are safe for
// concurrent use.
type Registry struct {
	normalAuth      atomic.Int64
	duressAuth      atomic.Int64
	rejectedAuth    atomic.Int64
	alertsDelivered atomic.Int64
	alertsFailed    atomic.Int64
	switchTriggers  atomic.Int64
}

// NewRegistry creates a new metrics registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// RecordAuth records one authentication classification.
func (r *Registry) RecordAuth(c model.Classification) {
	switch c {
	case model.ClassificationNormal:
		r.normalAuth.Add(1)
	case model.ClassificationDuress:
		r.duressAuth.Add(1)
	case model.ClassificationRejected:
		r.rejectedAuth.Add(1)
	}
}

// RecordDelivery records one channel delivery attempt.
func (r *Registry) RecordDelivery(ok bool) {
	if ok {
		r.alertsDelivered.Add(1)
	} else {
		r.alertsFailed.Add(1)
	}
}

// RecordSwitchTrigger records one dead-man's-switch trigger.
func (r *Registry) RecordSwitchTrigger() {
	r.switchTriggers.Add(1)
}

// Snapshot is a point-in-time view of all counters.
type Snapshot struct {
	NormalAuth      int64 `json:"normal_auth"`
	DuressAuth      int64 `json:"duress_auth"`
	RejectedAuth    int64 `json:"rejected_auth"`
	AlertsDelivered int64 `json:"alerts_delivered"`
	AlertsFailed    int64 `json:"alerts_failed"`
	SwitchTriggers  int64 `json:"switch_triggers"`
}

// Snapshot returns current counter values.
func (r *Registry) Snapshot() Snapshot {
	return Snapshot{
		NormalAuth:      r.normalAuth.Load(),
		DuressAuth:      r.duressAuth.Load(),
		RejectedAuth:    r.rejectedAuth.Load(),
		AlertsDelivered: r.alertsDelivered.Load(),
		AlertsFailed:    r.alertsFailed.Load(),
		SwitchTriggers:  r.switchTriggers.Load(),
	}
}
