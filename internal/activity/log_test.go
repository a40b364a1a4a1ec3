package activity

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duressd/duressd/pkg/model"
)

func alertEvent(id string) model.AlertEvent {
	return model.AlertEvent{
		ID:        id,
		Username:  "demo",
		Level:     model.LevelImmediate,
		Source:    model.SourceAuth,
		Count:     3,
		Timestamp: time.Now().UTC(),
	}
}

func TestRecordAttempt(t *testing.T) {
	l := New(nil, nil)

	l.RecordAttempt(model.ClassificationNormal)
	l.RecordAttempt(model.ClassificationDuress)
	l.RecordAttempt(model.ClassificationDuress)
	l.RecordAttempt(model.ClassificationRejected) // not counted

	stats := l.Statistics()
	assert.Equal(t, 3, stats.TotalAttempts)
	assert.Equal(t, 1, stats.NormalCount)
	assert.Equal(t, 2, stats.DuressCount)
}

func TestAppendAlert_NewestFirstCapped(t *testing.T) {
	l := New(nil, nil)

	for i := 0; i < maxRecentEvents+10; i++ {
		l.AppendAlert(alertEvent(fmt.Sprintf("ev-%d", i)))
	}

	stats := l.Statistics()
	require.Len(t, stats.RecentEvents, maxRecentEvents)
	assert.Equal(t, fmt.Sprintf("ev-%d", maxRecentEvents+9), stats.RecentEvents[0].ID)
}

func TestRecordAlertSent(t *testing.T) {
	l := New(nil, nil)
	l.RecordAlertSent()
	l.RecordAlertSent()
	assert.Equal(t, 2, l.Statistics().AlertsSent)
}

func TestStatisticsReturnsCopy(t *testing.T) {
	l := New(nil, nil)
	l.AppendAlert(alertEvent("ev-1"))

	stats := l.Statistics()
	stats.RecentEvents[0].ID = "mutated"

	assert.Equal(t, "ev-1", l.Statistics().RecentEvents[0].ID)
}

func TestFileSink_ChainVerifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.jsonl")
	sink := NewFileSink(path)

	for i := 0; i < 5; i++ {
		require.NoError(t, sink.Append(alertEvent(fmt.Sprintf("ev-%d", i))))
	}
	require.NoError(t, sink.Verify())
}

func TestFileSink_EmptyFileVerifies(t *testing.T) {
	sink := NewFileSink(filepath.Join(t.TempDir(), "absent.jsonl"))
	require.NoError(t, sink.Verify())
}

func TestLogWithSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.jsonl")
	sink := NewFileSink(path)
	l := New(sink, nil)

	l.AppendAlert(alertEvent("ev-1"))
	l.AppendAlert(alertEvent("ev-2"))

	require.NoError(t, sink.Verify())
	assert.Len(t, l.Statistics().RecentEvents, 2)
}
