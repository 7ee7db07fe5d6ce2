package handlers

import (
	"context"

	"github.com/goliatone/go-payment-ingest/core"
)

type customerPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CustomerHandler acknowledges customer lifecycle events without touching the
// ledger. Customer records are created lazily by the ledger when an order
// references them, so these deliveries are observability only.
type CustomerHandler struct {
	Logger core.Logger
}

func NewCustomerHandler(logger core.Logger) *CustomerHandler {
	return &CustomerHandler{Logger: logger}
}

func (h *CustomerHandler) SupportedTypes() []string {
	return []string{
		"customer.created",
		"customer.updated",
		"customer.deleted",
	}
}

func (h *CustomerHandler) Handle(ctx context.Context, event core.Event) error {
	if h == nil {
		return handlerBadInput("handlers: customer handler is not configured", nil)
	}
	var customer customerPayload
	if err := decodePayload(event, &customer); err != nil {
		return err
	}

	logger := h.Logger
	logEvent(ctx, logger, "customer event acknowledged without ledger action", map[string]any{
		"event_id":             event.ID,
		"event_type":           event.Type,
		"external_customer_id": customer.ID,
	})
	return nil
}

var _ core.EventHandler = (*CustomerHandler)(nil)
