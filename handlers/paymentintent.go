package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-payment-ingest/core"
)

type paymentIntentPayload struct {
	ID               string            `json:"id"`
	Amount           int64             `json:"amount"`
	Currency         string            `json:"currency"`
	Customer         string            `json:"customer"`
	Metadata         map[string]string `json:"metadata"`
	LastPaymentError *struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

func (p paymentIntentPayload) failureMessage() string {
	if p.LastPaymentError != nil && p.LastPaymentError.Message != "" {
		return p.LastPaymentError.Message
	}
	return "unknown error"
}

// PaymentIntentHandler reconciles payment_intent lifecycle events. Succeeded
// deliveries transition the pre-created order to paid when one exists for the
// intent id; without one the handler falls back to creating a completed order
// from the payload.
type PaymentIntentHandler struct {
	Ledger core.Ledger
	Logger core.Logger
}

func NewPaymentIntentHandler(ledger core.Ledger, logger core.Logger) *PaymentIntentHandler {
	return &PaymentIntentHandler{Ledger: ledger, Logger: logger}
}

func (h *PaymentIntentHandler) SupportedTypes() []string {
	return []string{
		"payment_intent.succeeded",
		"payment_intent.payment_failed",
		"payment_intent.created",
		"payment_intent.canceled",
		"payment_intent.requires_action",
	}
}

func (h *PaymentIntentHandler) Handle(ctx context.Context, event core.Event) error {
	if h == nil || h.Ledger == nil {
		return handlerBadInput("handlers: payment intent handler is not configured", nil)
	}
	var intent paymentIntentPayload
	if err := decodePayload(event, &intent); err != nil {
		return err
	}

	switch event.Type {
	case "payment_intent.succeeded":
		return h.handleSucceeded(ctx, event, intent)
	case "payment_intent.payment_failed":
		return h.handleFailed(ctx, event, intent)
	default:
		logEvent(ctx, h.Logger, "payment intent event acknowledged without ledger action", map[string]any{
			"event_id":   event.ID,
			"event_type": event.Type,
			"intent_id":  intent.ID,
		})
		return nil
	}
}

func (h *PaymentIntentHandler) handleSucceeded(ctx context.Context, event core.Event, intent paymentIntentPayload) error {
	orderIDHint := intent.Metadata["orderId"]
	provisional := strings.HasPrefix(orderIDHint, "pending-")

	order, err := h.Ledger.MarkOrderPaid(ctx, intent.ID)
	if err == nil {
		logEvent(ctx, h.Logger, "payment intent succeeded", map[string]any{
			"event_id":            event.ID,
			"order_id":            order.ID,
			"external_payment_id": intent.ID,
			"amount":              order.Amount,
			"currency":            order.Currency,
			"status":              string(order.Status),
		})
		return nil
	}
	if !isNotFound(err) {
		return err
	}
	if orderIDHint != "" && !provisional {
		// the client claimed a concrete ledger order, but the intent id
		// never made it into the payment index
		warnEvent(ctx, h.Logger, "payment intent succeeded but claimed order is unknown", map[string]any{
			"event_id":            event.ID,
			"order_id":            orderIDHint,
			"external_payment_id": intent.ID,
		})
	}

	order, err = h.Ledger.CreateOrder(ctx, core.CreateOrderInput{
		Status:             core.OrderStatusCompleted,
		Amount:             intent.Amount,
		Currency:           intent.Currency,
		ExternalCustomerID: intent.Customer,
		ExternalPaymentID:  intent.ID,
		Description:        fmt.Sprintf("Payment intent payment for %s", intent.ID),
	})
	if err != nil {
		return err
	}
	logEvent(ctx, h.Logger, "payment intent succeeded without prior order, created completed order", map[string]any{
		"event_id":            event.ID,
		"order_id":            order.ID,
		"external_payment_id": intent.ID,
		"amount":              order.Amount,
		"currency":            order.Currency,
	})
	return nil
}

func (h *PaymentIntentHandler) handleFailed(ctx context.Context, event core.Event, intent paymentIntentPayload) error {
	existing, err := h.Ledger.FindOrderByPaymentID(ctx, intent.ID)
	if err == nil {
		updated, updateErr := h.Ledger.UpdateOrderStatus(ctx, existing.ID, core.OrderStatusFailed)
		if updateErr != nil {
			return updateErr
		}
		logEvent(ctx, h.Logger, "payment intent failed, order transitioned", map[string]any{
			"event_id":            event.ID,
			"order_id":            updated.ID,
			"external_payment_id": intent.ID,
			"reason":              intent.failureMessage(),
		})
		return nil
	}
	if !isNotFound(err) {
		return err
	}

	order, err := h.Ledger.CreateOrder(ctx, core.CreateOrderInput{
		Status:             core.OrderStatusFailed,
		Amount:             intent.Amount,
		Currency:           intent.Currency,
		ExternalCustomerID: intent.Customer,
		ExternalPaymentID:  intent.ID,
		Description:        fmt.Sprintf("Failed payment intent: %s", intent.failureMessage()),
	})
	if err != nil {
		return err
	}
	logEvent(ctx, h.Logger, "payment intent failed without prior order, recorded failed order", map[string]any{
		"event_id":            event.ID,
		"order_id":            order.ID,
		"external_payment_id": intent.ID,
		"reason":              intent.failureMessage(),
	})
	return nil
}

var _ core.EventHandler = (*PaymentIntentHandler)(nil)
