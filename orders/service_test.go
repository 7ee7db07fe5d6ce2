package orders

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-payment-ingest/core"
	"github.com/goliatone/go-payment-ingest/handlers"
	"github.com/goliatone/go-payment-ingest/ledger"
)

func TestCreateOrderRegistersPendingLedgerOrder(t *testing.T) {
	store := ledger.NewMemoryLedger(true)
	intents := NewSimulatedIntentClient()
	service := NewService(store, intents)
	service.Now = func() time.Time { return time.Unix(1710000000, 0).UTC() }

	response, err := service.CreateOrder(context.Background(), CreateOrderRequest{
		Amount:      2500,
		Currency:    "USD",
		Description: "two seats",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if response.Status != "pending" {
		t.Fatalf("unexpected status: %s", response.Status)
	}
	if response.Currency != "usd" {
		t.Fatalf("unexpected currency: %s", response.Currency)
	}
	if !strings.HasPrefix(response.PaymentIntentID, "pi_") {
		t.Fatalf("unexpected intent id: %s", response.PaymentIntentID)
	}
	if !strings.Contains(response.ClientSecret, "_secret_") {
		t.Fatalf("unexpected client secret shape: %s", response.ClientSecret)
	}

	order, err := store.FindOrderByPaymentID(context.Background(), response.PaymentIntentID)
	if err != nil {
		t.Fatalf("ledger order lookup: %v", err)
	}
	if order.ID != response.OrderID || order.Status != core.OrderStatusPending {
		t.Fatalf("unexpected ledger order: %+v", order)
	}

	input, ok := intents.Intent(response.PaymentIntentID)
	if !ok {
		t.Fatal("intent not recorded")
	}
	if got := input.Metadata["orderId"]; !strings.HasPrefix(got, "pending-") {
		t.Fatalf("intent metadata must carry a provisional order id, got %q", got)
	}
	if input.Metadata["description"] != "two seats" {
		t.Fatalf("unexpected metadata: %+v", input.Metadata)
	}
}

func TestCreateOrderRejectsNonPositiveAmount(t *testing.T) {
	service := NewService(ledger.NewMemoryLedger(false), NewSimulatedIntentClient())

	for _, amount := range []int64{0, -10} {
		if _, err := service.CreateOrder(context.Background(), CreateOrderRequest{Amount: amount}); err == nil {
			t.Fatalf("expected rejection for amount %d", amount)
		}
	}
}

type failingIntentClient struct{}

func (failingIntentClient) CreateIntent(context.Context, IntentInput) (Intent, error) {
	return Intent{}, errors.New("provider unavailable")
}

func TestCreateOrderIntentFailureCreatesNoOrder(t *testing.T) {
	store := ledger.NewMemoryLedger(false)
	service := NewService(store, failingIntentClient{})

	if _, err := service.CreateOrder(context.Background(), CreateOrderRequest{Amount: 100}); err == nil {
		t.Fatal("expected intent failure to propagate")
	}
	orders, _ := store.ListOrders(context.Background())
	if len(orders) != 0 {
		t.Fatalf("no ledger order may exist after intent failure, got %d", len(orders))
	}
}

func TestConfigExposesPublishableKey(t *testing.T) {
	service := NewService(ledger.NewMemoryLedger(false), NewSimulatedIntentClient())
	service.PublishableKey = "pk_test_123"

	config := service.Config()
	if config["publishableKey"] != "pk_test_123" {
		t.Fatalf("unexpected config: %+v", config)
	}
}

// The full round trip: intent created up front, succeeded webhook reconciles
// the same pending order to paid without creating a second one.
func TestIntentFlowReconciledBySucceededEvent(t *testing.T) {
	store := ledger.NewMemoryLedger(false)
	service := NewService(store, NewSimulatedIntentClient())

	response, err := service.CreateOrder(context.Background(), CreateOrderRequest{Amount: 4200, Currency: "usd"})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	payload, err := json.Marshal(map[string]any{
		"id":       response.PaymentIntentID,
		"amount":   4200,
		"currency": "usd",
		"metadata": map[string]string{"orderId": response.OrderID},
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	handler := handlers.NewPaymentIntentHandler(store, nil)
	event := core.Event{ID: "evt_flow", Type: "payment_intent.succeeded", Payload: payload}
	if err := handler.Handle(context.Background(), event); err != nil {
		t.Fatalf("handle: %v", err)
	}

	order, err := store.GetOrder(context.Background(), response.OrderID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if order.Status != core.OrderStatusPaid {
		t.Fatalf("expected paid order, got %s", order.Status)
	}
	orders, _ := store.ListOrders(context.Background())
	if len(orders) != 1 {
		t.Fatalf("expected single reconciled order, got %d", len(orders))
	}
}
