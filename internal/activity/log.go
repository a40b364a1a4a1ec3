// Package activity keeps the append-only record of classifications and
// alert events, and derives the statistics view from it.
package activity

import (
	"sync"

	"github.com/duressd/duressd/pkg/logging"
	"github.com/duressd/duressd/pkg/model"
)

// maxRecentEvents caps the in-memory recent-events ring.
const maxRecentEvents = 50

// Sink receives every appended alert event, e.g. for file persistence.
// Sink failures never affect the in-memory log.
type Sink interface {
	Append(ev model.AlertEvent) error
}

// Log is the in-memory activity log. Alert events are immutable once
// appended; counters only grow.
type Log struct {
	mu            sync.Mutex
	recent        []model.AlertEvent // newest first
	totalAttempts int
	normalCount   int
	duressCount   int
	alertsSent    int
	sink          Sink
	log           *logging.Logger
}

// New creates an activity log. sink may be nil.
func New(sink Sink, log *logging.Logger) *Log {
	if log == nil {
		log = logging.NewLogger(logging.LevelInfo)
	}
	return &Log{sink: sink, log: log}
}

// RecordAttempt counts one classified authentication attempt. Rejected
// attempts are not counted: they mutate no caller-visible state.
func (l *Log) RecordAttempt(c model.Classification) {
	if c == model.ClassificationRejected {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.totalAttempts++
	switch c {
	case model.ClassificationNormal:
		l.normalCount++
	case model.ClassificationDuress:
		l.duressCount++
	}
}

// AppendAlert appends one immutable alert event.
func (l *Log) AppendAlert(ev model.AlertEvent) {
	l.mu.Lock()
	l.recent = append([]model.AlertEvent{ev}, l.recent...)
	if len(l.recent) > maxRecentEvents {
		l.recent = l.recent[:maxRecentEvents]
	}
	sink := l.sink
	l.mu.Unlock()

	if sink != nil {
		if err := sink.Append(ev); err != nil {
			l.log.ErrorErr("activity sink append failed", err, map[string]any{
				"event_id": ev.ID,
			})
		}
	}
}

// RecordAlertSent counts one dispatched notification.
func (l *Log) RecordAlertSent() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.alertsSent++
}

// Statistics returns the current statistics view. RecentEvents is a
// copy, newest first.
func (l *Log) Statistics() model.Statistics {
	l.mu.Lock()
	defer l.mu.Unlock()
	return model.Statistics{
		TotalAttempts: l.totalAttempts,
		NormalCount:   l.normalCount,
		DuressCount:   l.duressCount,
		AlertsSent:    l.alertsSent,
		RecentEvents:  append([]model.AlertEvent(nil), l.recent...),
	}
}
