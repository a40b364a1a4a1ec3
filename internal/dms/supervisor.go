// Package dms implements the dead-man's-switch supervisor: per-identity
// check-in deadlines evaluated by a periodic sweep, feeding the same
// alert pipeline as duress authentication.
package dms

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/duressd/duressd/internal/activity"
	"github.com/duressd/duressd/internal/wallet"
	"github.com/duressd/duressd/pkg/errclass"
	"github.com/duressd/duressd/pkg/logging"
	"github.com/duressd/duressd/pkg/metrics"
	"github.com/duressd/duressd/pkg/model"
)

// Dispatcher is the notification fan-out a triggered switch fires into.
type Dispatcher interface {
	DispatchImmediate(ev model.AlertEvent)
}

// Options configures a Supervisor.
type Options struct {
	Dispatcher Dispatcher
	Activity   *activity.Log
	Wallets    wallet.Provider
	Metrics    *metrics.Registry
	Logger     *logging.Logger
	Clock      func() time.Time

	// SweepInterval is how often Run evaluates deadlines.
	SweepInterval time.Duration

	// TransferAddress, when set, is where a triggered switch asks the
	// wallet provider to move real funds.
	TransferAddress string
}

// Supervisor owns all switch records and the sweep loop. One sweep
// goroutine serves every switch; no per-switch timers exist.
type Supervisor struct {
	mu       sync.Mutex
	switches map[string]*model.SwitchRecord

	dispatcher      Dispatcher
	activity        *activity.Log
	wallets         wallet.Provider
	metrics         *metrics.Registry
	log             *logging.Logger
	clock           func() time.Time
	sweepInterval   time.Duration
	transferAddress string
}

// New creates a supervisor.
func New(opts Options) *Supervisor {
	if opts.Logger == nil {
		opts.Logger = logging.NewLogger(logging.LevelInfo)
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewRegistry()
	}
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return time.Now().UTC() }
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Minute
	}
	return &Supervisor{
		switches:        make(map[string]*model.SwitchRecord),
		dispatcher:      opts.Dispatcher,
		activity:        opts.Activity,
		wallets:         opts.Wallets,
		metrics:         opts.Metrics,
		log:             opts.Logger,
		clock:           opts.Clock,
		sweepInterval:   opts.SweepInterval,
		transferAddress: opts.TransferAddress,
	}
}

// Create arms a new switch for the identity. The interval must be
// positive. An identity has at most one switch; recreating requires
// deleting the old one first.
func (s *Supervisor) Create(username string, interval time.Duration) (*model.SwitchStatus, error) {
	if interval <= 0 {
		return nil, errclass.ErrInvalidInterval.WithMessagef("interval %s must be positive", interval)
	}

	now := s.clock()
	rec := &model.SwitchRecord{
		ID:          uuid.NewString(),
		Username:    username,
		Interval:    interval,
		LastCheckIn: now,
		State:       model.SwitchArmed,
		CreatedAt:   now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.switches[username]; exists {
		return nil, errclass.ErrSwitchExists.WithMessagef("switch already exists for %s", username)
	}
	s.switches[username] = rec

	s.log.Info("switch armed", map[string]any{
		"username": username,
		"interval": interval.String(),
	})
	st := rec.Status(now)
	return &st, nil
}

// CheckIn restarts the countdown. A triggered switch refuses check-ins;
// its state is terminal.
func (s *Supervisor) CheckIn(username string) (*model.SwitchStatus, error) {
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.switches[username]
	if !ok {
		return nil, errclass.ErrSwitchNotFound.WithMessagef("no switch for %s", username)
	}
	if rec.State == model.SwitchTriggered {
		return nil, errclass.ErrAlreadyTriggered.WithMessagef("switch for %s has already triggered", username)
	}
	rec.LastCheckIn = now

	st := rec.Status(now)
	return &st, nil
}

// Disable pauses deadline evaluation. The countdown position is kept.
func (s *Supervisor) Disable(username string) (*model.SwitchStatus, error) {
	return s.setState(username, model.SwitchPaused)
}

// Enable re-arms a paused switch with a fresh countdown.
func (s *Supervisor) Enable(username string) (*model.SwitchStatus, error) {
	return s.setState(username, model.SwitchArmed)
}

func (s *Supervisor) setState(username string, state model.SwitchState) (*model.SwitchStatus, error) {
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.switches[username]
	if !ok {
		return nil, errclass.ErrSwitchNotFound.WithMessagef("no switch for %s", username)
	}
	if rec.State == model.SwitchTriggered {
		return nil, errclass.ErrAlreadyTriggered.WithMessagef("switch for %s has already triggered", username)
	}
	rec.State = state
	if state == model.SwitchArmed {
		// Re-arming restarts the countdown so a long pause does not
		// trigger the moment the switch wakes up.
		rec.LastCheckIn = now
	}

	s.log.Info("switch state changed", map[string]any{
		"username": username,
		"state":    string(state),
	})
	st := rec.Status(now)
	return &st, nil
}

// Delete removes the switch entirely. This is the only way to clear a
// triggered switch.
func (s *Supervisor) Delete(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.switches[username]; !ok {
		return errclass.ErrSwitchNotFound.WithMessagef("no switch for %s", username)
	}
	delete(s.switches, username)
	return nil
}

// Status returns the current view of the identity's switch.
func (s *Supervisor) Status(username string) (*model.SwitchStatus, error) {
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.switches[username]
	if !ok {
		return nil, errclass.ErrSwitchNotFound.WithMessagef("no switch for %s", username)
	}
	st := rec.Status(now)
	return &st, nil
}

// List returns the status of every switch, ordered by username.
func (s *Supervisor) List() []model.SwitchStatus {
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.SwitchStatus, 0, len(s.switches))
	for _, rec := range s.switches {
		out = append(out, rec.Status(now))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// Run drives the sweep loop until ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	s.log.Info("switch supervisor started", map[string]any{
		"sweep_interval": s.sweepInterval.String(),
	})
	for {
		select {
		case <-ctx.Done():
			s.log.Info("switch supervisor stopped", nil)
			return
		case <-ticker.C:
			s.Sweep(s.clock())
		}
	}
}

// Sweep evaluates every armed switch against now and triggers the
// overdue ones. It returns how many switches triggered in this pass.
//
// The trigger transition is checked and applied under the lock, so a
// switch triggers at most once even with concurrent sweeps, and a
// Disable that won the lock first suppresses the pending trigger.
func (s *Supervisor) Sweep(now time.Time) int {
	s.mu.Lock()
	var fired []*model.SwitchRecord
	for _, rec := range s.switches {
		if rec.State != model.SwitchArmed || !rec.IsOverdue(now) {
			continue
		}
		rec.State = model.SwitchTriggered
		t := now
		rec.TriggeredAt = &t
		fired = append(fired, rec)
	}
	s.mu.Unlock()

	for _, rec := range fired {
		s.fire(rec, now)
	}
	return len(fired)
}

// fire runs the trigger side effects outside the lock. All of them are
// best-effort: a failing webhook or wallet never un-triggers a switch.
func (s *Supervisor) fire(rec *model.SwitchRecord, now time.Time) {
	s.log.Warn("switch triggered", map[string]any{
		"username":      rec.Username,
		"switch_id":     rec.ID,
		"last_check_in": rec.LastCheckIn.Format(time.RFC3339),
	})
	s.metrics.RecordSwitchTrigger()

	ev := model.AlertEvent{
		ID:        uuid.NewString(),
		Username:  rec.Username,
		Level:     model.LevelImmediate,
		Source:    model.SourceTimer,
		Timestamp: now,
	}
	if s.activity != nil {
		s.activity.AppendAlert(ev)
		s.activity.RecordAlertSent()
	}
	if s.dispatcher != nil {
		s.dispatcher.DispatchImmediate(ev)
	}

	if s.transferAddress != "" && s.wallets != nil {
		intent := model.TransferIntent{
			Username:    rec.Username,
			ToAddress:   s.transferAddress,
			RequestedAt: now,
		}
		if err := s.wallets.RequestTransfer(intent); err != nil {
			s.log.ErrorErr("safety transfer request failed", err, map[string]any{
				"username": rec.Username,
			})
		}
	}
}
