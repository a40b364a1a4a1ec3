// Package auth implements the duress authenticator: it classifies each
// authentication attempt and drives the counter, escalation policy,
// wallet selection and notification pipeline.
package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/duressd/duressd/internal/activity"
	"github.com/duressd/duressd/internal/counter"
	"github.com/duressd/duressd/internal/escalation"
	"github.com/duressd/duressd/internal/identity"
	"github.com/duressd/duressd/internal/wallet"
	"github.com/duressd/duressd/pkg/errclass"
	"github.com/duressd/duressd/pkg/logging"
	"github.com/duressd/duressd/pkg/metrics"
	"github.com/duressd/duressd/pkg/model"
)

// Dispatcher is the notification fan-out consumed by the authenticator.
// Both methods are best-effort: they never return errors and never fail
// the authentication call.
type Dispatcher interface {
	DispatchImmediate(ev model.AlertEvent)
	DispatchDelayed(ev model.AlertEvent, delay time.Duration)
}

// Result is the outcome of one classified attempt.
type Result struct {
	Classification model.Classification  `json:"classification"`
	Level          model.EscalationLevel `json:"level"`
	Count          int                   `json:"count"`
	Selector       model.WalletSelector  `json:"selector"`
	Wallet         *model.Wallet         `json:"wallet"`
}

// Options configures an Authenticator.
type Options struct {
	Identities identity.Store
	Wallets    wallet.Provider
	Counters   *counter.Store
	Policy     escalation.Policy
	Dispatcher Dispatcher
	Activity   *activity.Log
	Metrics    *metrics.Registry
	Logger     *logging.Logger
	Clock      func() time.Time
}

// Authenticator classifies authentication attempts.
type Authenticator struct {
	identities identity.Store
	wallets    wallet.Provider
	counters   *counter.Store
	policy     escalation.Policy
	dispatcher Dispatcher
	activity   *activity.Log
	metrics    *metrics.Registry
	log        *logging.Logger
	clock      func() time.Time
}

// New creates an authenticator.
func New(opts Options) *Authenticator {
	if opts.Logger == nil {
		opts.Logger = logging.NewLogger(logging.LevelInfo)
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewRegistry()
	}
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return time.Now().UTC() }
	}
	return &Authenticator{
		identities: opts.Identities,
		wallets:    opts.Wallets,
		counters:   opts.Counters,
		policy:     opts.Policy,
		dispatcher: opts.Dispatcher,
		activity:   opts.Activity,
		metrics:    opts.Metrics,
		log:        opts.Logger,
		clock:      opts.Clock,
	}
}

// Authenticate classifies one attempt and applies the side effects the
// classification requires.
//
// NORMAL resets the consecutive duress count and unlocks the real
// wallet. DURESS increments the count, appends an alert event, invokes
// the dispatcher per policy and unlocks the decoy wallet. REJECTED
// mutates nothing and returns ErrCredentialRejected.
//
// The attempted secret must equal the stored duress code exactly for a
// DURESS classification; any other mismatch is REJECTED. Notification
// failures never surface here.
func (a *Authenticator) Authenticate(username, secret string) (*Result, error) {
	rec, err := a.identities.Lookup(username)
	if err != nil {
		return nil, err
	}
	user := rec.Username

	if rec.MatchesNormal(secret) {
		return a.handleNormal(user)
	}
	if rec.MatchesDuress(secret) {
		return a.handleDuress(user)
	}

	a.metrics.RecordAuth(model.ClassificationRejected)
	a.log.Warn("authentication rejected", map[string]any{"username": user})
	return nil, errclass.ErrCredentialRejected.WithMessagef("invalid credentials for %s", user)
}

func (a *Authenticator) handleNormal(user string) (*Result, error) {
	a.counters.ResetNormal(user, a.clock())
	a.activity.RecordAttempt(model.ClassificationNormal)
	a.metrics.RecordAuth(model.ClassificationNormal)
	a.log.Info("normal authentication", map[string]any{"username": user})

	w, err := a.wallets.Wallet(user, model.WalletReal)
	if err != nil {
		return nil, err
	}
	return &Result{
		Classification: model.ClassificationNormal,
		Level:          model.LevelNone,
		Selector:       model.WalletReal,
		Wallet:         w,
	}, nil
}

func (a *Authenticator) handleDuress(user string) (*Result, error) {
	count, confirmedAt := a.counters.IncrementDuress(user)
	decision := a.policy.Decide(count)

	ev := model.AlertEvent{
		ID:        uuid.NewString(),
		Username:  user,
		Level:     decision.Level,
		Source:    model.SourceAuth,
		Count:     count,
		Timestamp: confirmedAt,
	}
	a.activity.AppendAlert(ev)
	a.activity.RecordAttempt(model.ClassificationDuress)
	a.metrics.RecordAuth(model.ClassificationDuress)
	a.log.Warn("duress authentication", map[string]any{
		"username": user,
		"count":    count,
		"level":    decision.Level.String(),
	})

	// An earlier DELAYED schedule is never cancelled by a later
	// attempt: every dispatch here is independent, at-least-once.
	switch decision.Dispatch {
	case escalation.DispatchDelayed:
		a.dispatcher.DispatchDelayed(ev, decision.Delay)
		a.activity.RecordAlertSent()
	case escalation.DispatchImmediate:
		a.dispatcher.DispatchImmediate(ev)
		a.activity.RecordAlertSent()
	}

	w, err := a.wallets.Wallet(user, model.WalletDecoy)
	if err != nil {
		return nil, err
	}
	return &Result{
		Classification: model.ClassificationDuress,
		Level:          decision.Level,
		Count:          count,
		Selector:       model.WalletDecoy,
		Wallet:         w,
	}, nil
}
