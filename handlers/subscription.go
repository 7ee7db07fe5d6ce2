package handlers

import (
	"context"

	"github.com/goliatone/go-payment-ingest/core"
)

type subscriptionPayload struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
}

// SubscriptionHandler acknowledges subscription lifecycle events without a
// ledger action. Recurring billing lands here as invoice events, which carry
// the amounts; the subscription object itself has nothing to reconcile.
type SubscriptionHandler struct {
	Logger core.Logger
}

func NewSubscriptionHandler(logger core.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{Logger: logger}
}

func (h *SubscriptionHandler) SupportedTypes() []string {
	return []string{
		"subscription.created",
		"subscription.updated",
		"subscription.deleted",
		"subscription.paused",
		"subscription.resumed",
		"subscription.trial_will_end",
	}
}

func (h *SubscriptionHandler) Handle(ctx context.Context, event core.Event) error {
	if h == nil {
		return handlerBadInput("handlers: subscription handler is not configured", nil)
	}
	var subscription subscriptionPayload
	if err := decodePayload(event, &subscription); err != nil {
		return err
	}

	logEvent(ctx, h.Logger, "subscription event acknowledged without ledger action", map[string]any{
		"event_id":        event.ID,
		"event_type":      event.Type,
		"subscription_id": subscription.ID,
		"status":          subscription.Status,
	})
	return nil
}

var _ core.EventHandler = (*SubscriptionHandler)(nil)
