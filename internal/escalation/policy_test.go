package escalation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/duressd/duressd/pkg/model"
)

func TestLevelFor(t *testing.T) {
	cases := []struct {
		count int
		want  model.EscalationLevel
	}{
		{0, model.LevelNone},
		{-1, model.LevelNone},
		{1, model.LevelSilent},
		{2, model.LevelDelayed},
		{3, model.LevelImmediate},
		{4, model.LevelImmediate},
		{100, model.LevelImmediate},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LevelFor(tc.count), "count=%d", tc.count)
	}
}

func TestLevelFor_NonDecreasing(t *testing.T) {
	prev := LevelFor(1)
	for count := 2; count <= 50; count++ {
		level := LevelFor(count)
		assert.GreaterOrEqual(t, level, prev, "level must not decrease as count grows")
		prev = level
	}
}

func TestDecide(t *testing.T) {
	p := Policy{DelayedDelay: 2 * time.Hour}

	d := p.Decide(1)
	assert.Equal(t, model.LevelSilent, d.Level)
	assert.Equal(t, DispatchNone, d.Dispatch)

	d = p.Decide(2)
	assert.Equal(t, model.LevelDelayed, d.Level)
	assert.Equal(t, DispatchDelayed, d.Dispatch)
	assert.Equal(t, 2*time.Hour, d.Delay)

	d = p.Decide(3)
	assert.Equal(t, model.LevelImmediate, d.Level)
	assert.Equal(t, DispatchImmediate, d.Dispatch)
	assert.Zero(t, d.Delay)
}

func TestDecide_DeterministicAfterReset(t *testing.T) {
	p := Default()
	// Same counts map to the same decisions regardless of history.
	first := p.Decide(2)
	again := p.Decide(2)
	assert.Equal(t, first, again)
}
