package publish

import (
	"errors"
	"math"
	"sync"

	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/param"
)

// ErrTerminated is returned by blocking calls after the terminate
// sentinel has been published.
var ErrTerminated = errors.New("terminate requested")

// ErrClosed is returned when the publisher is shut down while a caller
// is blocked.
var ErrClosed = errors.New("publisher closed")

// Publisher holds the current control value and coordinates its handoff
// between the channel reader and a consumer loop. The value itself is
// guarded by one mutex; a condition variable wakes consumers when the
// value changes, and a second, independent condition variable implements
// the updater's wait-until-observed handshake so that "value changed"
// and "value observed" never share a signal path.
type Publisher struct {
	mu      sync.Mutex
	changed *sync.Cond
	acked   *sync.Cond

	val        param.Value
	changeCh   chan struct{}
	needAck    bool
	terminated bool
	closed     bool
}

// New creates a publisher seeded with the given initial value. Seeding
// the terminate sentinel yields a publisher that is terminated from the
// start, so a consumer's very first wait returns instead of parking.
func New(initial param.Value) *Publisher {
	p := &Publisher{
		val:        initial,
		terminated: initial.Terminate,
		changeCh:   make(chan struct{}),
	}
	p.changed = sync.NewCond(&p.mu)
	p.acked = sync.NewCond(&p.mu)
	return p
}

// Publish installs a new control value. An additive value is combined
// with the current one, saturating at the maximum. Publishing a value
// identical to the current one is a deliberate no-op: it wakes nobody
// and does not arm the acknowledgment handshake. The return reports
// whether the publish took effect.
func (p *Publisher) Publish(v param.Value) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.terminated {
		return false
	}

	if v.Terminate {
		p.terminated = true
		p.wakeAllLocked()
		return true
	}

	next := v
	next.Additive = false
	if v.Additive {
		next = p.val
		next.Additive = false
		if !next.Infinite {
			if sum := next.Magnitude + v.Magnitude; sum < next.Magnitude {
				next.Magnitude = math.MaxUint64
			} else {
				next.Magnitude = sum
			}
		}
	}
	if next == p.val {
		return false
	}

	p.val = next
	p.needAck = true
	p.changed.Broadcast()
	close(p.changeCh)
	p.changeCh = make(chan struct{})
	return true
}

// Terminate publishes the terminate sentinel directly.
func (p *Publisher) Terminate() {
	p.Publish(param.Value{Terminate: true})
}

// WaitObserved blocks until a consumer has observed the most recently
// published value. The polled regular-file reader calls this after every
// effective publish, which bounds it to one in-flight update at a time.
func (p *Publisher) WaitObserved() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.needAck && !p.closed && !p.terminated {
		p.acked.Wait()
	}
	if p.needAck && p.closed {
		return ErrClosed
	}
	return nil
}

// Acquire blocks until the quantity quota allows progress, then consumes
// up to max units and returns the number granted. An infinite quota
// grants max without consuming anything.
func (p *Publisher) Acquire(max uint64) (uint64, error) {
	if max == 0 {
		return 0, nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		p.observeLocked()
		switch {
		case p.terminated:
			return 0, ErrTerminated
		case p.closed:
			return 0, ErrClosed
		case p.val.Infinite:
			return max, nil
		case p.val.Magnitude > 0:
			n := max
			if n > p.val.Magnitude {
				n = p.val.Magnitude
			}
			p.val.Magnitude -= n
			return n, nil
		}
		p.changed.Wait()
	}
}

// Current returns the present value and acknowledges it as observed.
func (p *Publisher) Current() param.Value {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observeLocked()
	v := p.val
	if p.terminated {
		v = param.Value{Terminate: true}
	}
	return v
}

// Changed returns a channel that is closed by the next effective
// publish. Consumer loops that must race a deadline against a parameter
// change select on it instead of sleeping on the condition variable.
func (p *Publisher) Changed() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.changeCh
}

// Terminated reports whether the terminate sentinel has been published.
func (p *Publisher) Terminated() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminated
}

// Close releases every blocked caller. It is idempotent and safe to call
// from an exit path regardless of the publisher's state.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.wakeAllLocked()
}

func (p *Publisher) observeLocked() {
	if p.needAck {
		p.needAck = false
		p.acked.Broadcast()
	}
}

func (p *Publisher) wakeAllLocked() {
	p.changed.Broadcast()
	p.acked.Broadcast()
	close(p.changeCh)
	p.changeCh = make(chan struct{})
}
