package events

import (
	"context"
	"sync"
)

// NoopPublisher discards events. Used when no NATS URL is configured.
type NoopPublisher struct{}

func (n *NoopPublisher) Publish(ctx context.Context, topic string, event any) error {
	return nil
}

func (n *NoopPublisher) Close() error {
	return nil
}

// Published is one event captured by a Recorder.
type Published struct {
	Topic string
	Event any
}

// Recorder keeps every published event in memory, in publish order.
type Recorder struct {
	mu     sync.Mutex
	events []Published
	// Err, when set, is returned from Publish after the event is recorded.
	Err error
}

func (r *Recorder) Publish(ctx context.Context, topic string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Published{Topic: topic, Event: event})
	return r.Err
}

func (r *Recorder) Close() error {
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Published(nil), r.events...)
}

// Topics returns the recorded topics in publish order.
func (r *Recorder) Topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	topics := make([]string, len(r.events))
	for i, e := range r.events {
		topics[i] = e.Topic
	}
	return topics
}
