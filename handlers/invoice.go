package handlers

import (
	"context"
	"fmt"

	"github.com/goliatone/go-payment-ingest/core"
)

type invoicePayload struct {
	ID           string `json:"id"`
	Total        int64  `json:"total"`
	Currency     string `json:"currency"`
	Customer     string `json:"customer"`
	Number       string `json:"number"`
	Subscription string `json:"subscription"`
}

// InvoiceHandler tracks the invoice lifecycle as one order keyed by the
// invoice id: created opens it pending, finalized and paid transition it, and
// each transition falls back to creating the order when the earlier event was
// never delivered.
type InvoiceHandler struct {
	Ledger core.Ledger
	Logger core.Logger
}

func NewInvoiceHandler(ledger core.Ledger, logger core.Logger) *InvoiceHandler {
	return &InvoiceHandler{Ledger: ledger, Logger: logger}
}

func (h *InvoiceHandler) SupportedTypes() []string {
	return []string{
		"invoice.created",
		"invoice.finalized",
		"invoice.paid",
		"invoice.payment_failed",
		"invoice.voided",
		"invoice.deleted",
		"invoice.marked_uncollectible",
		"invoice.payment_action_required",
	}
}

func (h *InvoiceHandler) Handle(ctx context.Context, event core.Event) error {
	if h == nil || h.Ledger == nil {
		return handlerBadInput("handlers: invoice handler is not configured", nil)
	}
	var invoice invoicePayload
	if err := decodePayload(event, &invoice); err != nil {
		return err
	}

	switch event.Type {
	case "invoice.created":
		return h.handleCreated(ctx, event, invoice)
	case "invoice.finalized":
		return h.reconcile(ctx, event, invoice, core.OrderStatusFinalized,
			fmt.Sprintf("Finalized invoice: %s", invoice.Number))
	case "invoice.paid":
		return h.reconcile(ctx, event, invoice, core.OrderStatusCompleted,
			fmt.Sprintf("Paid invoice: %s", invoice.Number))
	case "invoice.payment_failed":
		return h.reconcile(ctx, event, invoice, core.OrderStatusFailed,
			fmt.Sprintf("Failed invoice: %s", invoice.Number))
	default:
		logEvent(ctx, h.Logger, "invoice event acknowledged without ledger action", map[string]any{
			"event_id":   event.ID,
			"event_type": event.Type,
			"invoice_id": invoice.ID,
		})
		return nil
	}
}

func (h *InvoiceHandler) handleCreated(ctx context.Context, event core.Event, invoice invoicePayload) error {
	order, err := h.Ledger.CreateOrder(ctx, core.CreateOrderInput{
		Status:             core.OrderStatusPending,
		Amount:             invoice.Total,
		Currency:           invoice.Currency,
		ExternalCustomerID: invoice.Customer,
		ExternalPaymentID:  invoice.ID,
		Description:        fmt.Sprintf("Invoice: %s", invoice.Number),
	})
	if err != nil {
		return err
	}
	logEvent(ctx, h.Logger, "invoice created, pending order opened", map[string]any{
		"event_id":            event.ID,
		"order_id":            order.ID,
		"external_payment_id": invoice.ID,
		"amount":              order.Amount,
		"currency":            order.Currency,
	})
	return nil
}

func (h *InvoiceHandler) reconcile(ctx context.Context, event core.Event, invoice invoicePayload, status core.OrderStatus, description string) error {
	existing, err := h.Ledger.FindOrderByPaymentID(ctx, invoice.ID)
	if err == nil {
		updated, updateErr := h.Ledger.UpdateOrderStatus(ctx, existing.ID, status)
		if updateErr != nil {
			return updateErr
		}
		logEvent(ctx, h.Logger, "invoice event reconciled, order transitioned", map[string]any{
			"event_id":            event.ID,
			"event_type":          event.Type,
			"order_id":            updated.ID,
			"external_payment_id": invoice.ID,
			"status":              string(updated.Status),
		})
		return nil
	}
	if !isNotFound(err) {
		return err
	}

	order, err := h.Ledger.CreateOrder(ctx, core.CreateOrderInput{
		Status:             status,
		Amount:             invoice.Total,
		Currency:           invoice.Currency,
		ExternalCustomerID: invoice.Customer,
		ExternalPaymentID:  invoice.ID,
		Description:        description,
	})
	if err != nil {
		return err
	}
	logEvent(ctx, h.Logger, "invoice event without prior order, created order", map[string]any{
		"event_id":            event.ID,
		"event_type":          event.Type,
		"order_id":            order.ID,
		"external_payment_id": invoice.ID,
		"status":              string(order.Status),
	})
	return nil
}

var _ core.EventHandler = (*InvoiceHandler)(nil)
