// Package ingest wires the webhook intake path: verify the raw delivery,
// route the typed event to the one handler claiming its type, and record the
// outcome in the delivery journal.
package ingest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-payment-ingest/core"
)

// Router maps event type strings onto registered handlers. Types are exact
// case-sensitive matches, no wildcards. Overlapping claims are a configuration
// error surfaced at Register time; an unclaimed type at Route time is not an
// error, the delivery is acknowledged and logged.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]core.EventHandler
}

func NewRouter() *Router {
	return &Router{handlers: map[string]core.EventHandler{}}
}

func (r *Router) Register(handler core.EventHandler) error {
	if r == nil {
		return ingestInternal("ingest: router is nil", nil)
	}
	if handler == nil {
		return ingestBadInput("ingest: handler is nil", nil)
	}
	types := handler.SupportedTypes()
	if len(types) == 0 {
		return ingestBadInput("ingest: handler claims no event types", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, eventType := range types {
		eventType = strings.TrimSpace(eventType)
		if eventType == "" {
			return ingestBadInput("ingest: handler claims an empty event type", nil)
		}
		if _, exists := r.handlers[eventType]; exists {
			return ingestConflict(
				fmt.Sprintf("ingest: event type %q already claimed", eventType),
				map[string]any{"event_type": eventType},
			)
		}
	}
	for _, eventType := range types {
		r.handlers[strings.TrimSpace(eventType)] = handler
	}
	return nil
}

// RegisterAll registers handlers in order, stopping at the first conflict.
func (r *Router) RegisterAll(handlers ...core.EventHandler) error {
	for _, handler := range handlers {
		if err := r.Register(handler); err != nil {
			return err
		}
	}
	return nil
}

// Route returns the handler claiming the event's type, or nil when the type
// is unmapped.
func (r *Router) Route(event core.Event) core.EventHandler {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handlers[event.Type]
}

// Types returns the claimed event types in no particular order.
func (r *Router) Types() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.handlers))
	for eventType := range r.handlers {
		types = append(types, eventType)
	}
	return types
}
