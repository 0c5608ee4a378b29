package session

import (
	"context"
	"sync"
	"sync/atomic"
)

// MailboxStats counts mailbox traffic.
type MailboxStats struct {
	Published uint64
	// Overwritten counts frames replaced before anyone read them.
	Overwritten uint64
	Reads       uint64
}

// Mailbox is a single-slot latest-frame store. Publishing overwrites the slot and never blocks;
// readers always see the newest frame.
type Mailbox struct {
	mu     *sync.Mutex
	frame  *Frame
	read   bool
	notify chan struct{}
	closed bool

	published   atomic.Uint64
	overwritten atomic.Uint64
	reads       atomic.Uint64
}

var _ Session = &Mailbox{}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{mu: &sync.Mutex{}, notify: make(chan struct{})}
}

// Publish stores f as the latest frame and wakes waiters.
//
// Parameters:
//   - f: the frame to publish
func (m *Mailbox) Publish(f *Frame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	if m.frame != nil && !m.read {
		m.overwritten.Add(1)
	}
	m.frame = f
	m.read = false
	m.published.Add(1)
	close(m.notify)
	m.notify = make(chan struct{})
}

func (m *Mailbox) CurrentFrame() *Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frame != nil {
		m.read = true
		m.reads.Add(1)
	}
	return m.frame
}

// Next blocks until a frame newer than seq is published, the mailbox closes, or ctx ends.
//
// Parameters:
//   - ctx: cancels the wait
//   - seq: the sequence number of the last frame seen
//
// Returns:
//   - *Frame: the newer frame, or nil if the mailbox closed
//   - error: ctx.Err() if the context ended first
func (m *Mailbox) Next(ctx context.Context, seq uint64) (*Frame, error) {
	for {
		m.mu.Lock()
		if m.frame != nil && m.frame.Seq > seq {
			f := m.frame
			m.read = true
			m.reads.Add(1)
			m.mu.Unlock()
			return f, nil
		}
		if m.closed {
			m.mu.Unlock()
			return nil, nil
		}
		wait := m.notify
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-wait:
		}
	}
}

// Close wakes every waiter and rejects further frames.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	close(m.notify)
}

// Stats returns a snapshot of the counters.
func (m *Mailbox) Stats() MailboxStats {
	return MailboxStats{
		Published:   m.published.Load(),
		Overwritten: m.overwritten.Load(),
		Reads:       m.reads.Load(),
	}
}
