package web

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/table-booking/internal/application/form"
)

// Registry holds one form controller per browser session, in memory only.
// Sessions idle for longer than the TTL are dropped by Sweep.
type Registry struct {
	newForm func() *form.Controller
	ttl     time.Duration
	now     func() time.Time
	log     *zap.Logger
	onSize  func(int)

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	ctrl     *form.Controller
	lastSeen time.Time
}

type RegistryOption func(*Registry)

func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

// WithSizeHook is called with the session count after every change.
func WithSizeHook(fn func(int)) RegistryOption {
	return func(r *Registry) { r.onSize = fn }
}

func WithRegistryLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) { r.log = l }
}

func NewRegistry(newForm func() *form.Controller, ttl time.Duration, opts ...RegistryOption) *Registry {
	r := &Registry{
		newForm: newForm,
		ttl:     ttl,
		now:     time.Now,
		log:     zap.NewNop(),
		onSize:  func(int) {},
		entries: map[string]*entry{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Get returns the controller for id and marks the session as used.
func (r *Registry) Get(id string) (*form.Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.ctrl, true
}

// Create starts a fresh form under a new random id.
func (r *Registry) Create() (string, *form.Controller) {
	id := uuid.NewString()
	ctrl := r.newForm()

	r.mu.Lock()
	r.entries[id] = &entry{ctrl: ctrl, lastSeen: r.now()}
	n := len(r.entries)
	r.mu.Unlock()

	r.onSize(n)
	return id, ctrl
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops sessions idle for longer than the TTL and returns how many went.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)
	var idle []*form.Controller

	r.mu.Lock()
	for id, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			idle = append(idle, e.ctrl)
			delete(r.entries, id)
		}
	}
	n := len(r.entries)
	r.mu.Unlock()

	for _, c := range idle {
		c.Close()
	}
	if len(idle) > 0 {
		r.log.Debug("idle sessions dropped", zap.Int("dropped", len(idle)), zap.Int("remaining", n))
		r.onSize(n)
	}
	return len(idle)
}

// Run sweeps on every tick until ctx is done, then closes every controller.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Close()
			return nil
		case <-t.C:
			r.Sweep()
		}
	}
}

func (r *Registry) Close() {
	r.mu.Lock()
	all := r.entries
	r.entries = map[string]*entry{}
	r.mu.Unlock()

	for _, e := range all {
		e.ctrl.Close()
	}
	r.onSize(0)
}
