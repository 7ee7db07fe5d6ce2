// Package orders implements the checkout-side pre-creation flow: the backend
// creates the provider payment intent, registers a pending ledger order under
// the real intent id, and hands the client secret back to the frontend. The
// webhook pipeline later reconciles the same order by that intent id.
package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-payment-ingest/core"
)

type CreateOrderRequest struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

type CreateOrderResponse struct {
	OrderID         string `json:"orderId"`
	Status          string `json:"status"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

type IntentInput struct {
	Amount      int64
	Currency    string
	Description string
	Metadata    map[string]string
}

type Intent struct {
	ID           string
	ClientSecret string
}

// IntentClient creates a payment intent with the provider. The metadata map
// travels back on the succeeded webhook untouched.
type IntentClient interface {
	CreateIntent(ctx context.Context, input IntentInput) (Intent, error)
}

type Service struct {
	Ledger         core.Ledger
	Intents        IntentClient
	Logger         core.Logger
	PublishableKey string

	Now func() time.Time
}

func NewService(ledger core.Ledger, intents IntentClient) *Service {
	return &Service{Ledger: ledger, Intents: intents}
}

func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (CreateOrderResponse, error) {
	if s == nil || s.Ledger == nil || s.Intents == nil {
		return CreateOrderResponse{}, ordersInternal("orders: service is not configured", nil)
	}
	if req.Amount <= 0 {
		return CreateOrderResponse{}, ordersBadInput("orders: amount must be positive", map[string]any{
			"amount": req.Amount,
		})
	}
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "usd"
	}

	// the ledger order does not exist yet, so the intent carries a
	// provisional order id; reconciliation keys off the intent id instead
	provisionalID := fmt.Sprintf("pending-%d", s.now().UnixMilli())
	metadata := map[string]string{"orderId": provisionalID}
	if description := strings.TrimSpace(req.Description); description != "" {
		metadata["description"] = description
	}

	intent, err := s.Intents.CreateIntent(ctx, IntentInput{
		Amount:      req.Amount,
		Currency:    currency,
		Description: strings.TrimSpace(req.Description),
		Metadata:    metadata,
	})
	if err != nil {
		return CreateOrderResponse{}, ordersWrap(err, "orders: create payment intent", map[string]any{
			"amount":   req.Amount,
			"currency": currency,
		})
	}

	order, err := s.Ledger.CreatePendingOrder(ctx, core.PendingOrderInput{
		Amount:            req.Amount,
		Currency:          currency,
		Description:       strings.TrimSpace(req.Description),
		ExternalPaymentID: intent.ID,
	})
	if err != nil {
		return CreateOrderResponse{}, err
	}

	s.logInfo(ctx, "order intent created", map[string]any{
		"order_id":            order.ID,
		"external_payment_id": intent.ID,
		"amount":              order.Amount,
		"currency":            order.Currency,
	})
	return CreateOrderResponse{
		OrderID:         order.ID,
		Status:          string(order.Status),
		Amount:          order.Amount,
		Currency:        order.Currency,
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
	}, nil
}

// Config returns the provider configuration the frontend needs to initialize
// its payment widget.
func (s *Service) Config() map[string]string {
	key := ""
	if s != nil {
		key = s.PublishableKey
	}
	return map[string]string{"publishableKey": key}
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) logInfo(ctx context.Context, message string, fields map[string]any) {
	logger := s.logger()
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(core.FieldsLogger); ok {
		logger = fieldsLogger.WithFields(fields)
	}
	logger.Info(message, flattenFields(fields)...)
}

func (s *Service) logger() core.Logger {
	if s != nil && s.Logger != nil {
		return s.Logger
	}
	return glog.Nop()
}
