package events

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

var ErrPublisherClosed = errors.New("event publisher is closed")

// LocalPublisher delivers events to an in-process handler on a single worker
// goroutine. It is used when no Pulsar broker is configured.
type LocalPublisher struct {
	handle Handler
	log    *zerolog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan ComplaintEvent
	done   chan struct{}
}

// NewLocalPublisher starts the worker. buffer bounds the number of queued
// events before Publish blocks.
func NewLocalPublisher(handle Handler, buffer int, log *zerolog.Logger) *LocalPublisher {
	if buffer <= 0 {
		buffer = 64
	}
	p := &LocalPublisher{
		handle: handle,
		log:    log,
		queue:  make(chan ComplaintEvent, buffer),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *LocalPublisher) run() {
	defer close(p.done)
	for event := range p.queue {
		if err := p.handle(context.Background(), event); err != nil {
			p.log.Error().Err(err).Str("event_type", event.Type).
				Int64("complaint_id", event.ComplaintID).Msg("Failed to handle local event")
		}
	}
}

// Publish queues an event for the worker.
func (p *LocalPublisher) Publish(event ComplaintEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	p.queue <- event
	return nil
}

// Close drains queued events and stops the worker.
func (p *LocalPublisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()
	<-p.done
}
