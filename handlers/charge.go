package handlers

import (
	"context"
	"fmt"

	"github.com/goliatone/go-payment-ingest/core"
)

type chargePayload struct {
	ID             string `json:"id"`
	Amount         int64  `json:"amount"`
	AmountRefunded int64  `json:"amount_refunded"`
	Currency       string `json:"currency"`
	Customer       string `json:"customer"`
	FailureMessage string `json:"failure_message"`
	Status         string `json:"status"`
}

// ChargeHandler reconciles charge lifecycle events. A refund for a charge this
// ledger never observed is logged as a reconciliation miss and acknowledged
// without creating an order; there is nothing left to reconcile it against.
type ChargeHandler struct {
	Ledger core.Ledger
	Logger core.Logger
}

func NewChargeHandler(ledger core.Ledger, logger core.Logger) *ChargeHandler {
	return &ChargeHandler{Ledger: ledger, Logger: logger}
}

func (h *ChargeHandler) SupportedTypes() []string {
	return []string{
		"charge.succeeded",
		"charge.failed",
		"charge.refunded",
		"charge.captured",
		"charge.updated",
		"charge.dispute.created",
	}
}

func (h *ChargeHandler) Handle(ctx context.Context, event core.Event) error {
	if h == nil || h.Ledger == nil {
		return handlerBadInput("handlers: charge handler is not configured", nil)
	}
	var charge chargePayload
	if err := decodePayload(event, &charge); err != nil {
		return err
	}

	switch event.Type {
	case "charge.succeeded":
		return h.handleSucceeded(ctx, event, charge)
	case "charge.failed":
		return h.handleFailed(ctx, event, charge)
	case "charge.refunded":
		return h.handleRefunded(ctx, event, charge)
	default:
		logEvent(ctx, h.Logger, "charge event acknowledged without ledger action", map[string]any{
			"event_id":   event.ID,
			"event_type": event.Type,
			"charge_id":  charge.ID,
		})
		return nil
	}
}

func (h *ChargeHandler) handleSucceeded(ctx context.Context, event core.Event, charge chargePayload) error {
	existing, err := h.Ledger.FindOrderByPaymentID(ctx, charge.ID)
	if err == nil {
		updated, updateErr := h.Ledger.UpdateOrderStatus(ctx, existing.ID, core.OrderStatusCompleted)
		if updateErr != nil {
			return updateErr
		}
		logEvent(ctx, h.Logger, "charge succeeded, order transitioned", map[string]any{
			"event_id":            event.ID,
			"order_id":            updated.ID,
			"external_payment_id": charge.ID,
			"amount":              updated.Amount,
			"currency":            updated.Currency,
		})
		return nil
	}
	if !isNotFound(err) {
		return err
	}

	order, err := h.Ledger.CreateOrder(ctx, core.CreateOrderInput{
		Status:             core.OrderStatusCompleted,
		Amount:             charge.Amount,
		Currency:           charge.Currency,
		ExternalCustomerID: charge.Customer,
		ExternalPaymentID:  charge.ID,
		Description:        fmt.Sprintf("Charge payment for %s", charge.ID),
	})
	if err != nil {
		return err
	}
	logEvent(ctx, h.Logger, "charge succeeded, created completed order", map[string]any{
		"event_id":            event.ID,
		"order_id":            order.ID,
		"external_payment_id": charge.ID,
		"amount":              order.Amount,
		"currency":            order.Currency,
	})
	return nil
}

func (h *ChargeHandler) handleFailed(ctx context.Context, event core.Event, charge chargePayload) error {
	reason := charge.FailureMessage
	if reason == "" {
		reason = "unknown error"
	}

	existing, err := h.Ledger.FindOrderByPaymentID(ctx, charge.ID)
	if err == nil {
		updated, updateErr := h.Ledger.UpdateOrderStatus(ctx, existing.ID, core.OrderStatusFailed)
		if updateErr != nil {
			return updateErr
		}
		logEvent(ctx, h.Logger, "charge failed, order transitioned", map[string]any{
			"event_id":            event.ID,
			"order_id":            updated.ID,
			"external_payment_id": charge.ID,
			"reason":              reason,
		})
		return nil
	}
	if !isNotFound(err) {
		return err
	}

	order, err := h.Ledger.CreateOrder(ctx, core.CreateOrderInput{
		Status:             core.OrderStatusFailed,
		Amount:             charge.Amount,
		Currency:           charge.Currency,
		ExternalCustomerID: charge.Customer,
		ExternalPaymentID:  charge.ID,
		Description:        fmt.Sprintf("Failed charge: %s", reason),
	})
	if err != nil {
		return err
	}
	logEvent(ctx, h.Logger, "charge failed without prior order, recorded failed order", map[string]any{
		"event_id":            event.ID,
		"order_id":            order.ID,
		"external_payment_id": charge.ID,
		"reason":              reason,
	})
	return nil
}

func (h *ChargeHandler) handleRefunded(ctx context.Context, event core.Event, charge chargePayload) error {
	existing, err := h.Ledger.FindOrderByPaymentID(ctx, charge.ID)
	if err != nil {
		if isNotFound(err) {
			warnEvent(ctx, h.Logger, "reconciliation miss: refund for unknown charge", map[string]any{
				"event_id":            event.ID,
				"external_payment_id": charge.ID,
				"amount_refunded":     charge.AmountRefunded,
			})
			return nil
		}
		return err
	}

	updated, err := h.Ledger.UpdateOrderStatus(ctx, existing.ID, core.OrderStatusRefunded)
	if err != nil {
		return err
	}
	logEvent(ctx, h.Logger, "charge refunded, order transitioned", map[string]any{
		"event_id":            event.ID,
		"order_id":            updated.ID,
		"external_payment_id": charge.ID,
		"amount":              updated.Amount,
		"amount_refunded":     charge.AmountRefunded,
	})
	return nil
}

var _ core.EventHandler = (*ChargeHandler)(nil)
