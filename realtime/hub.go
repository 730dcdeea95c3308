// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Event types
const (
	EventPlanUpdated     = "plan.updated"
	EventSettingsUpdated = "settings.updated"
)

const (
	subscriberBuffer = 16
	broadcastBuffer  = 64
)

var (
	ErrAlreadySubscribed = errors.New("session already has an active subscription")
	ErrHubClosed         = errors.New("hub is shut down")
)

// Event is one message pushed to subscribers.
type Event struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent marshals data into an event of the given type.
func NewEvent(eventType string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Data: raw, Timestamp: time.Now().UTC()}, nil
}

// Hub fans events out to at most one subscription per session.
type Hub struct {
	mu        sync.Mutex
	subs      map[string]*Subscription
	broadcast chan Event
	closed    bool
}

// Subscription receives events until closed by its owner or dropped by the
// hub for falling behind.
type Subscription struct {
	SessionID string
	events    chan Event
	hub       *Hub
	once      sync.Once
}

// NewHub creates a hub. Call Run to start delivery.
func NewHub() *Hub {
	return &Hub{
		subs:      make(map[string]*Subscription),
		broadcast: make(chan Event, broadcastBuffer),
	}
}

// Subscribe registers sessionID. A session may hold one live subscription.
func (h *Hub) Subscribe(sessionID string) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if _, ok := h.subs[sessionID]; ok {
		return nil, ErrAlreadySubscribed
	}

	sub := &Subscription{
		SessionID: sessionID,
		events:    make(chan Event, subscriberBuffer),
		hub:       h,
	}
	h.subs[sessionID] = sub
	slog.Debug("subscription opened", "session", sessionID)
	return sub, nil
}

// Events is closed when the subscription ends.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close ends the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.hub.remove(s)
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cur, ok := h.subs[s.SessionID]; ok && cur == s {
		delete(h.subs, s.SessionID)
	}
	s.once.Do(func() { close(s.events) })
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Publish queues ev for delivery. Events are dropped when the queue is full.
func (h *Hub) Publish(ev Event) {
	select {
	case h.broadcast <- ev:
	default:
		slog.Warn("event queue full, dropping event", "type", ev.Type)
	}
}

// Run delivers queued events until ctx is done, then closes every
// subscription.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case ev := <-h.broadcast:
			h.deliver(ev)
		}
	}
}

func (h *Hub) deliver(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, sub := range h.subs {
		select {
		case sub.events <- ev:
		default:
			// Slow consumer
			slog.Warn("dropping slow subscriber", "session", id)
			delete(h.subs, id)
			sub.once.Do(func() { close(sub.events) })
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, sub := range h.subs {
		delete(h.subs, id)
		sub.once.Do(func() { close(sub.events) })
	}
}
