package core

import (
	"context"
	"encoding/json"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

// Event is one parsed webhook delivery. Payload stays raw so each handler
// decodes only the object shape it cares about.
type Event struct {
	ID      string
	Type    string
	Payload json.RawMessage
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusRefunded  OrderStatus = "refunded"
	OrderStatusFinalized OrderStatus = "finalized"
	OrderStatusPaid      OrderStatus = "paid"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusFailed,
		OrderStatusRefunded, OrderStatusFinalized, OrderStatusPaid:
		return true
	default:
		return false
	}
}

// Order is the ledger-side record of a payment transaction. ExternalPaymentID
// is the reconciliation key: at most one order may carry a given value.
type Order struct {
	ID                string      `json:"id"`
	Status            OrderStatus `json:"status"`
	Amount            int64       `json:"amount"`
	Currency          string      `json:"currency"`
	CustomerID        string      `json:"customerId,omitempty"`
	ExternalPaymentID string      `json:"externalPaymentId,omitempty"`
	Description       string      `json:"description,omitempty"`
}

type Customer struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	ExternalCustomerID string `json:"externalCustomerId,omitempty"`
}

type CreateOrderInput struct {
	ExternalPaymentID  string
	ExternalCustomerID string
	Amount             int64
	Currency           string
	Description        string
	Status             OrderStatus
}

type PendingOrderInput struct {
	Amount            int64
	Currency          string
	Description       string
	ExternalPaymentID string
}

// Ledger is the narrow surface handlers mutate orders through. Handlers never
// touch Order or Customer state directly.
type Ledger interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (Order, error)
	CreatePendingOrder(ctx context.Context, input PendingOrderInput) (Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status OrderStatus) (Order, error)
	FindOrderByPaymentID(ctx context.Context, externalPaymentID string) (Order, error)
	MarkOrderPaid(ctx context.Context, externalPaymentID string) (Order, error)
	GetOrder(ctx context.Context, orderID string) (Order, error)
	GetCustomer(ctx context.Context, customerID string) (Customer, error)
	ListOrders(ctx context.Context) ([]Order, error)
	ListCustomers(ctx context.Context) ([]Customer, error)
	Reset(ctx context.Context) error
}

// EventHandler claims a fixed set of event type strings and maps each claimed
// event onto at most one ledger write.
type EventHandler interface {
	SupportedTypes() []string
	Handle(ctx context.Context, event Event) error
}

type InboundRequest struct {
	ProviderID string
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type InboundResult struct {
	Accepted   bool
	StatusCode int
	Metadata   map[string]any
}

const (
	JournalStatusProcessed     = "processed"
	JournalStatusHandlerMiss   = "handler_miss"
	JournalStatusHandlerFailed = "handler_failed"
	JournalStatusRejected      = "rejected"
)

type JournalEntry struct {
	ProviderID string
	EventID    string
	EventType  string
	Status     string
	Error      string
	Metadata   map[string]any
}

// DeliveryJournal records delivery outcomes and order snapshots for audit.
// Journal failures never propagate to the webhook caller.
type DeliveryJournal interface {
	Append(ctx context.Context, entry JournalEntry) error
	RecordOrder(ctx context.Context, order Order) error
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

func HeaderValue(headers map[string]string, key string) string {
	if len(headers) == 0 {
		return ""
	}
	for existing, value := range headers {
		if strings.EqualFold(strings.TrimSpace(existing), strings.TrimSpace(key)) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
