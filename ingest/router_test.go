package ingest

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-payment-ingest/core"
)

type stubHandler struct {
	types   []string
	handled []core.Event
	err     error
}

func (h *stubHandler) SupportedTypes() []string { return h.types }

func (h *stubHandler) Handle(_ context.Context, event core.Event) error {
	h.handled = append(h.handled, event)
	return h.err
}

func TestRouterRoutesRegisteredTypes(t *testing.T) {
	router := NewRouter()
	payments := &stubHandler{types: []string{"payment_intent.succeeded", "payment_intent.payment_failed"}}
	charges := &stubHandler{types: []string{"charge.succeeded"}}
	if err := router.RegisterAll(payments, charges); err != nil {
		t.Fatalf("register: %v", err)
	}

	for _, eventType := range payments.types {
		if got := router.Route(core.Event{Type: eventType}); got != core.EventHandler(payments) {
			t.Fatalf("route %s returned wrong handler", eventType)
		}
	}
	if got := router.Route(core.Event{Type: "charge.succeeded"}); got != core.EventHandler(charges) {
		t.Fatal("route charge.succeeded returned wrong handler")
	}
}

func TestRouterUnmappedTypeIsNil(t *testing.T) {
	router := NewRouter()
	if err := router.Register(&stubHandler{types: []string{"charge.succeeded"}}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if got := router.Route(core.Event{Type: "plan.created"}); got != nil {
		t.Fatalf("expected nil for unmapped type, got %T", got)
	}
}

func TestRouterRejectsOverlappingClaims(t *testing.T) {
	router := NewRouter()
	if err := router.Register(&stubHandler{types: []string{"charge.succeeded"}}); err != nil {
		t.Fatalf("first register: %v", err)
	}

	err := router.Register(&stubHandler{types: []string{"charge.refunded", "charge.succeeded"}})
	if err == nil {
		t.Fatal("expected conflict for overlapping claim")
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.Category != goerrors.CategoryConflict {
		t.Fatalf("expected conflict category, got %v", err)
	}
	// a rejected registration must not partially claim types
	if got := router.Route(core.Event{Type: "charge.refunded"}); got != nil {
		t.Fatal("partially applied registration")
	}
}

func TestRouterRejectsEmptyClaims(t *testing.T) {
	router := NewRouter()
	if err := router.Register(&stubHandler{}); err == nil {
		t.Fatal("expected error for handler with no types")
	}
	if err := router.Register(nil); err == nil {
		t.Fatal("expected error for nil handler")
	}
}
