package form

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/example/table-booking/internal/domain/booking"
)

// Controller owns one booking form: field values, validation errors, the slot
// list for the chosen date and the last confirmed booking. It is safe for
// concurrent use, but models a single user's session.
//
// Changing the date starts an availability fetch in the background. A newer
// date cancels the older fetch, and responses for superseded dates are dropped.
type Controller struct {
	svc Service
	log *zap.Logger
	rec Recorder

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu    sync.Mutex
	state State
	seq   uint64
	fetch *slotFetch
}

type slotFetch struct {
	seq    uint64
	date   string
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Controller)

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		if r != nil {
			c.rec = r
		}
	}
}

func New(svc Service, opts ...Option) *Controller {
	ctx, stop := context.WithCancel(context.Background())
	c := &Controller{
		svc:  svc,
		log:  zap.NewNop(),
		rec:  noopRecorder{},
		ctx:  ctx,
		stop: stop,
		state: State{
			Errors: booking.Errors{},
			Slots:  []string{},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// SetField replaces one field. Errors, slots and summary are left alone;
// a changed date starts a new availability fetch.
func (c *Controller) SetField(field booking.Field, value string) error {
	if _, err := booking.ParseField(string(field)); err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.state.Form.Get(field)
	c.state.Form = c.state.Form.With(field, value)
	if field == booking.FieldDate && value != prev {
		c.startFetchLocked(value)
	}
	return nil
}

// SelectSlot sets the time field to one of the offered slots.
func (c *Controller) SelectSlot(slot string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if booking.IndexOfSlot(c.state.Slots, slot) < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}
	c.state.Form.Time = slot
	return nil
}

// RefreshSlots fetches availability again for the current date, e.g. after
// a failed fetch. It is a no-op while the date is empty.
func (c *Controller) RefreshSlots() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startFetchLocked(c.state.Form.Date)
}

// AwaitSlots blocks until no availability fetch is in flight or ctx is done.
func (c *Controller) AwaitSlots(ctx context.Context) error {
	for {
		c.mu.Lock()
		f := c.fetch
		c.mu.Unlock()
		if f == nil {
			return nil
		}
		select {
		case <-f.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Submit validates the form and, when it passes, books it. On confirmation the
// summary is stored and the form cleared. On rejection or failure a notice is
// set and the form is kept for another attempt.
func (c *Controller) Submit(ctx context.Context) Outcome {
	c.mu.Lock()
	f := c.state.Form
	errs := booking.Validate(f)
	c.state.Errors = errs
	c.mu.Unlock()

	if !errs.Empty() {
		c.rec.Submission(string(StatusInvalid))
		return Outcome{Status: StatusInvalid, Errors: copyErrors(errs)}
	}

	summary, err := c.svc.CreateBooking(ctx, f)

	c.mu.Lock()
	defer c.mu.Unlock()

	var out Outcome
	var rej *booking.RejectedError
	switch {
	case err == nil:
		sum := summary
		c.state.Summary = &sum
		c.state.Notice = ""
		c.resetFormLocked()
		out = Outcome{Status: StatusConfirmed, Summary: summary}
		c.log.Info("booking confirmed",
			zap.String("date", summary.Date), zap.String("time", summary.Time), zap.String("guests", summary.Guests))
	case errors.As(err, &rej):
		c.state.Notice = rej.Message
		out = Outcome{Status: StatusRejected, Message: rej.Message}
		c.log.Info("booking rejected", zap.String("date", f.Date), zap.String("time", f.Time), zap.String("reason", rej.Message))
	default:
		c.state.Notice = MsgServiceUnavailable
		out = Outcome{Status: StatusFailed, Message: MsgServiceUnavailable}
		c.log.Warn("booking submit failed", zap.String("date", f.Date), zap.Error(err))
	}
	out.Errors = booking.Errors{}
	c.rec.Submission(string(out.Status))
	return out
}

// TakeNotice returns the pending notice and clears it.
func (c *Controller) TakeNotice() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.state.Notice
	c.state.Notice = ""
	return n
}

// Close cancels any in-flight fetch and waits for it to finish.
func (c *Controller) Close() {
	c.stop()
	c.wg.Wait()
}

func (c *Controller) resetFormLocked() {
	hadDate := c.state.Form.Date != ""
	c.state.Form = booking.Form{}
	if hadDate {
		c.startFetchLocked("")
	}
}

// startFetchLocked supersedes any in-flight fetch and, for a non-empty date,
// starts a new one. c.mu must be held.
func (c *Controller) startFetchLocked(date string) {
	if c.fetch != nil {
		c.fetch.cancel()
		c.fetch = nil
	}
	c.seq++
	if date == "" || c.ctx.Err() != nil {
		return
	}

	ctx, cancel := context.WithCancel(c.ctx)
	f := &slotFetch{seq: c.seq, date: date, cancel: cancel, done: make(chan struct{})}
	c.fetch = f
	c.wg.Add(1)
	go c.runFetch(ctx, f)
}

func (c *Controller) runFetch(ctx context.Context, f *slotFetch) {
	defer c.wg.Done()
	defer close(f.done)
	defer f.cancel()

	slots, err := c.svc.AvailableSlots(ctx, f.date)

	c.mu.Lock()
	defer c.mu.Unlock()

	if f.seq != c.seq {
		c.log.Debug("dropping stale availability", zap.String("date", f.date))
		c.rec.SlotFetch(FetchStale)
		return
	}
	c.fetch = nil
	if err != nil {
		c.state.SlotError = MsgSlotsUnavailable
		c.log.Warn("availability fetch failed", zap.String("date", f.date), zap.Error(err))
		c.rec.SlotFetch(FetchError)
		return
	}
	c.state.Slots = booking.CloneSlots(slots)
	c.state.SlotError = ""
	c.rec.SlotFetch(FetchOK)
}

func copyErrors(e booking.Errors) booking.Errors {
	out := make(booking.Errors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
