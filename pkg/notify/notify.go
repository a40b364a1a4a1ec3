// Package notify implements the alert notification dispatcher.
//
// Delivery is best-effort and at-least-once: failures are logged and
// counted but never surfaced to the caller, and a scheduled delayed
// notification always fires regardless of what happens to the identity
// or switch that produced it.
package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/duressd/duressd/pkg/logging"
	"github.com/duressd/duressd/pkg/metrics"
	"github.com/duressd/duressd/pkg/model"
)

// Channel is one opaque outbound destination.
type Channel struct {
	URL    string
	Secret string
}

// Sender delivers one serialized alert payload to a channel. The
// concrete transport (webhook HTTP POST, in tests a fake) lives behind
// this interface.
type Sender interface {
	Send(ctx context.Context, channel Channel, payload []byte) error
}

// Options configures a Dispatcher.
type Options struct {
	Channels    []Channel
	Sender      Sender // defaults to NewWebhookSender(SendTimeout)
	QueueSize   int    // defaults to 100
	SendTimeout time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
	Logger      *logging.Logger
	Metrics     *metrics.Registry
}

// Dispatcher fans alert events out to configured channels, either
// synchronously or after a delay. Each channel delivery is independent:
// one channel's failure never blocks or fails the others.
type Dispatcher struct {
	channels    []Channel
	sender      Sender
	queue       chan job
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	once        sync.Once
	sendTimeout time.Duration
	maxRetries  int
	retryDelay  time.Duration
	log         *logging.Logger
	metrics     *metrics.Registry
}

type job struct {
	event   model.AlertEvent
	channel Channel
}

// NewDispatcher creates a dispatcher and starts its background worker.
func NewDispatcher(opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 100
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 10 * time.Second
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	if opts.Sender == nil {
		opts.Sender = NewWebhookSender(opts.SendTimeout)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewLogger(logging.LevelInfo)
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewRegistry()
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		channels:    opts.Channels,
		sender:      opts.Sender,
		queue:       make(chan job, opts.QueueSize),
		ctx:         ctx,
		cancel:      cancel,
		sendTimeout: opts.SendTimeout,
		maxRetries:  opts.MaxRetries,
		retryDelay:  opts.RetryDelay,
		log:         opts.Logger,
		metrics:     opts.Metrics,
	}

	d.wg.Add(1)
	go d.worker()
	return d
}

// worker drains the background delivery queue.
func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			// Drain remaining jobs before exiting
			for {
				select {
				case j := <-d.queue:
					d.deliver(j)
				default:
					return
				}
			}
		case j := <-d.queue:
			d.deliver(j)
		}
	}
}

// DispatchImmediate attempts delivery to every configured channel
// before returning. Failures are logged, never returned: notification
// outcome must not affect the caller's classification or trigger
// decision.
func (d *Dispatcher) DispatchImmediate(event model.AlertEvent) {
	for _, ch := range d.channels {
		d.deliver(job{event: event, channel: ch})
	}
}

// DispatchDelayed schedules delivery to every configured channel after
// the given delay and returns immediately. No store or switch lock is
// held while the delay elapses; a scheduled notification always fires,
// even if a later normal login or a switch disable happens first.
func (d *Dispatcher) DispatchDelayed(event model.AlertEvent, delay time.Duration) {
	channels := d.channels
	time.AfterFunc(delay, func() {
		for _, ch := range channels {
			j := job{event: event, channel: ch}
			select {
			case d.queue <- j:
			default:
				// Queue full: deliver out-of-band rather than drop.
				go d.deliver(j)
			}
		}
	})
}

// deliver sends one job with bounded retries. Errors are swallowed.
func (d *Dispatcher) deliver(j job) {
	payload, err := json.Marshal(j.event)
	if err != nil {
		d.log.ErrorErr("marshal alert payload", err)
		return
	}

	var lastErr error
	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		if attempt > 0 {
			stop := false
			select {
			case <-d.ctx.Done():
				stop = true
			case <-time.After(d.retryDelay):
			}
			if stop {
				break
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
		err := d.sender.Send(ctx, j.channel, payload)
		cancel()
		if err == nil {
			d.metrics.RecordDelivery(true)
			d.log.Info("alert delivered", map[string]any{
				"username": j.event.Username,
				"level":    j.event.Level.String(),
				"source":   string(j.event.Source),
			})
			return
		}
		lastErr = err
	}

	d.metrics.RecordDelivery(false)
	d.log.ErrorErr("alert delivery failed", lastErr, map[string]any{
		"username": j.event.Username,
		"channel":  j.channel.URL,
	})
}

// Close stops the background worker after draining queued jobs.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.cancel()
		d.wg.Wait()
	})
}
