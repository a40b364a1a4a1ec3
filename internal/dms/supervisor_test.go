package dms

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duressd/duressd/internal/activity"
	"github.com/duressd/duressd/internal/wallet"
	"github.com/duressd/duressd/pkg/errclass"
	"github.com/duressd/duressd/pkg/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []model.AlertEvent
}

func (d *recordingDispatcher) DispatchImmediate(ev model.AlertEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.events)
}

type fixture struct {
	sup        *Supervisor
	clock      *fakeClock
	dispatcher *recordingDispatcher
	activity   *activity.Log
	wallets    *wallet.MemoryProvider
}

func newFixture(t *testing.T, transferAddress string) *fixture {
	t.Helper()
	f := &fixture{
		clock:      newFakeClock(),
		dispatcher: &recordingDispatcher{},
		activity:   activity.New(nil, nil),
		wallets:    wallet.NewMemoryProvider(nil),
	}
	f.sup = New(Options{
		Dispatcher:      f.dispatcher,
		Activity:        f.activity,
		Wallets:         f.wallets,
		Clock:           f.clock.Now,
		TransferAddress: transferAddress,
	})
	return f
}

const week = 7 * 24 * time.Hour

func TestCreate(t *testing.T) {
	f := newFixture(t, "")

	st, err := f.sup.Create("demo", week)
	require.NoError(t, err)
	assert.Equal(t, model.SwitchArmed, st.State)
	assert.Equal(t, week, st.Interval)
	assert.Equal(t, f.clock.Now().Add(week), st.NextDeadline)
}

func TestCreate_InvalidInterval(t *testing.T) {
	f := newFixture(t, "")

	_, err := f.sup.Create("demo", 0)
	assert.ErrorIs(t, err, errclass.ErrInvalidInterval)

	_, err = f.sup.Create("demo", -time.Hour)
	assert.ErrorIs(t, err, errclass.ErrInvalidInterval)
}

func TestCreate_Duplicate(t *testing.T) {
	f := newFixture(t, "")

	_, err := f.sup.Create("demo", week)
	require.NoError(t, err)
	_, err = f.sup.Create("demo", week)
	assert.ErrorIs(t, err, errclass.ErrSwitchExists)
}

func TestSweep_TriggersAfterDeadline(t *testing.T) {
	f := newFixture(t, "")
	_, err := f.sup.Create("demo", week)
	require.NoError(t, err)

	// Just before the deadline nothing happens.
	assert.Equal(t, 0, f.sup.Sweep(f.clock.Advance(week-time.Minute)))
	assert.Equal(t, 0, f.dispatcher.count())

	// At the deadline the switch trips once.
	assert.Equal(t, 1, f.sup.Sweep(f.clock.Advance(time.Minute)))
	require.Equal(t, 1, f.dispatcher.count())
	ev := f.dispatcher.events[0]
	assert.Equal(t, "demo", ev.Username)
	assert.Equal(t, model.LevelImmediate, ev.Level)
	assert.Equal(t, model.SourceTimer, ev.Source)

	st, err := f.sup.Status("demo")
	require.NoError(t, err)
	assert.Equal(t, model.SwitchTriggered, st.State)
	require.NotNil(t, st.TriggeredAt)

	// Repeated sweeps never fire again.
	assert.Equal(t, 0, f.sup.Sweep(f.clock.Advance(week)))
	assert.Equal(t, 1, f.dispatcher.count())
}

func TestCheckIn_RestartsCountdown(t *testing.T) {
	f := newFixture(t, "")
	_, err := f.sup.Create("demo", week)
	require.NoError(t, err)

	// Check in on day 6.
	f.clock.Advance(6 * 24 * time.Hour)
	st, err := f.sup.CheckIn("demo")
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().Add(week), st.NextDeadline)

	// Day 12 (6 days after check-in): still quiet.
	assert.Equal(t, 0, f.sup.Sweep(f.clock.Advance(6*24*time.Hour)))

	// Day 13: a full interval of silence since the check-in.
	assert.Equal(t, 1, f.sup.Sweep(f.clock.Advance(24*time.Hour)))
}

func TestCheckIn_Unknown(t *testing.T) {
	f := newFixture(t, "")
	_, err := f.sup.CheckIn("ghost")
	assert.ErrorIs(t, err, errclass.ErrSwitchNotFound)
}

func TestTriggeredIsTerminal(t *testing.T) {
	f := newFixture(t, "")
	_, err := f.sup.Create("demo", week)
	require.NoError(t, err)
	require.Equal(t, 1, f.sup.Sweep(f.clock.Advance(week)))

	_, err = f.sup.CheckIn("demo")
	assert.ErrorIs(t, err, errclass.ErrAlreadyTriggered)
	_, err = f.sup.Enable("demo")
	assert.ErrorIs(t, err, errclass.ErrAlreadyTriggered)
	_, err = f.sup.Disable("demo")
	assert.ErrorIs(t, err, errclass.ErrAlreadyTriggered)

	// Deleting and recreating is the way to resume monitoring.
	require.NoError(t, f.sup.Delete("demo"))
	st, err := f.sup.Create("demo", week)
	require.NoError(t, err)
	assert.Equal(t, model.SwitchArmed, st.State)
}

func TestDisable_SuppressesTrigger(t *testing.T) {
	f := newFixture(t, "")
	_, err := f.sup.Create("demo", week)
	require.NoError(t, err)

	_, err = f.sup.Disable("demo")
	require.NoError(t, err)

	// Long past the deadline a paused switch stays quiet.
	assert.Equal(t, 0, f.sup.Sweep(f.clock.Advance(3*week)))
	assert.Equal(t, 0, f.dispatcher.count())

	// Re-arming restarts the countdown from now.
	st, err := f.sup.Enable("demo")
	require.NoError(t, err)
	assert.Equal(t, model.SwitchArmed, st.State)
	assert.Equal(t, f.clock.Now().Add(week), st.NextDeadline)
	assert.Equal(t, 0, f.sup.Sweep(f.clock.Now()))
}

func TestTrigger_RequestsSafetyTransfer(t *testing.T) {
	f := newFixture(t, "zs1coldstorage")
	f.wallets.Seed("demo", 25.75, 0.5)
	_, err := f.sup.Create("demo", week)
	require.NoError(t, err)

	require.Equal(t, 1, f.sup.Sweep(f.clock.Advance(week)))

	intents := f.wallets.TransferIntents()
	require.Len(t, intents, 1)
	assert.Equal(t, "demo", intents[0].Username)
	assert.Equal(t, "zs1coldstorage", intents[0].ToAddress)
}

func TestTrigger_AppendsTimerAlert(t *testing.T) {
	f := newFixture(t, "")
	_, err := f.sup.Create("demo", week)
	require.NoError(t, err)
	require.Equal(t, 1, f.sup.Sweep(f.clock.Advance(week)))

	stats := f.activity.Statistics()
	require.Len(t, stats.RecentEvents, 1)
	assert.Equal(t, model.SourceTimer, stats.RecentEvents[0].Source)
	assert.Equal(t, 1, stats.AlertsSent)
}

func TestSweep_ConcurrentSingleTrigger(t *testing.T) {
	f := newFixture(t, "")
	_, err := f.sup.Create("demo", week)
	require.NoError(t, err)
	now := f.clock.Advance(week)

	var wg sync.WaitGroup
	fired := make(chan int, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fired <- f.sup.Sweep(now)
		}()
	}
	wg.Wait()
	close(fired)

	total := 0
	for n := range fired {
		total += n
	}
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, f.dispatcher.count())
}

func TestList(t *testing.T) {
	f := newFixture(t, "")
	_, err := f.sup.Create("bob", week)
	require.NoError(t, err)
	_, err = f.sup.Create("alice", week)
	require.NoError(t, err)

	list := f.sup.List()
	require.Len(t, list, 2)
	assert.Equal(t, "alice", list[0].Username)
	assert.Equal(t, "bob", list[1].Username)
}
