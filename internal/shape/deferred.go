package shape

import (
	"context"
	"sync/atomic"
)

type published struct {
	shape Shape
	err   error
}

// Deferred is a shape handle filled in by a loader running off the
// simulation goroutine. Readers never block: until the shape is published,
// Get reports false and the owning body sits out collision detection.
type Deferred struct {
	v    atomic.Pointer[published]
	done chan struct{}
}

func NewDeferred() *Deferred {
	return &Deferred{done: make(chan struct{})}
}

// Ready wraps an already built shape.
func Ready(s Shape) *Deferred {
	d := NewDeferred()
	d.Resolve(s, nil)
	return d
}

// Resolve publishes the loaded shape or the load error. Only the first call
// wins. An empty group is published as ErrEmptyGroup, never as ready.
func (d *Deferred) Resolve(s Shape, err error) bool {
	if s == nil && err == nil {
		return false
	}
	if err == nil {
		if g, ok := s.(*Group); ok {
			if err = g.Validate(); err != nil {
				s = nil
			}
		}
	}
	if !d.v.CompareAndSwap(nil, &published{shape: s, err: err}) {
		return false
	}
	close(d.done)
	return true
}

// Get returns the shape once it is published and loaded without error.
func (d *Deferred) Get() (Shape, bool) {
	p := d.v.Load()
	if p == nil || p.err != nil {
		return nil, false
	}
	return p.shape, true
}

// Err returns the load error, if any.
func (d *Deferred) Err() error {
	if p := d.v.Load(); p != nil {
		return p.err
	}
	return nil
}

// Done is closed once Resolve has been called.
func (d *Deferred) Done() <-chan struct{} { return d.done }

// Load runs fn on its own goroutine and publishes its result.
func Load(ctx context.Context, fn func(context.Context) (Shape, error)) *Deferred {
	d := NewDeferred()
	go func() {
		s, err := fn(ctx)
		if err == nil && s == nil {
			err = ErrInvalidDimensions
		}
		d.Resolve(s, err)
	}()
	return d
}
