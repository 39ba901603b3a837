package sniff

import (
	"io"
	"log/slog"
	"sync"
)

// Message is an in-flight message that can have a sniffer attached
// Implementations are used as map keys, so they must be comparable (typically pointers)
type Message interface {
	// AttachSniffer is invoked when the message is queued
	// The message must buffer at least sampleSize body bytes before its headers are treated as final, then invoke s
	AttachSniffer(s Sniffer, sampleSize int)
	// DetachSniffer is invoked when the message leaves the queue
	DetachSniffer()
}

// Feature attaches a shared Sniffer to messages as they are queued, and detaches it when they leave the queue
// It is safe for concurrent use
type Feature struct {
	sniffer Sniffer
	logger  *slog.Logger

	lock     sync.Mutex
	attached map[Message]struct{}
}

// NewFeature returns a Feature for the given sniffer
// If logger is nil, log messages are discarded
func NewFeature(s Sniffer, logger *slog.Logger) *Feature {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Feature{
		sniffer:  s,
		logger:   logger,
		attached: map[Message]struct{}{},
	}
}

// Sniffer returns the sniffer shared by all messages
func (f *Feature) Sniffer() Sniffer {
	return f.sniffer
}

// OnEnqueue attaches the sniffer to msg and returns the number of bytes msg must buffer before sniffing
// Calling OnEnqueue again for a message that is already attached does not take another reference
func (f *Feature) OnEnqueue(msg Message) int {
	size := f.sniffer.RequiredSampleSize()

	f.lock.Lock()
	_, ok := f.attached[msg]
	if !ok {
		f.attached[msg] = struct{}{}
	}
	refs := len(f.attached)
	f.lock.Unlock()

	if ok {
		return size
	}

	msg.AttachSniffer(f.sniffer, size)
	f.logger.Debug("Attached sniffer to message", "sampleSize", size, "refs", refs)
	return size
}

// OnDequeue detaches the sniffer from msg
// It is a no-op if msg is not attached, so the reference is released exactly once
func (f *Feature) OnDequeue(msg Message) {
	f.lock.Lock()
	_, ok := f.attached[msg]
	if ok {
		delete(f.attached, msg)
	}
	refs := len(f.attached)
	f.lock.Unlock()

	if !ok {
		return
	}

	msg.DetachSniffer()
	f.logger.Debug("Detached sniffer from message", "refs", refs)
}

// Refs returns the number of messages the sniffer is currently attached to
func (f *Feature) Refs() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return len(f.attached)
}

// Acquire enqueues msg and returns a Lease that dequeues it
func (f *Feature) Acquire(msg Message) *Lease {
	return &Lease{
		feature:    f,
		msg:        msg,
		SampleSize: f.OnEnqueue(msg),
	}
}

// Lease is the scoped ownership of a sniffer attached to a message
// Release must be invoked on every exit path; calls after the first one are no-ops
type Lease struct {
	// Number of bytes the message must buffer before sniffing
	SampleSize int

	feature *Feature
	msg     Message
	once    sync.Once
}

// Release dequeues the message
func (l *Lease) Release() {
	l.once.Do(func() {
		l.feature.OnDequeue(l.msg)
	})
}
