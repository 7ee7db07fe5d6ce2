package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-payment-ingest/core"
)

func TestMemoryLedgerCreateOrderDefaultsAndLookup(t *testing.T) {
	ledger := NewMemoryLedger(false)

	order, err := ledger.CreateOrder(context.Background(), core.CreateOrderInput{
		Amount:            2500,
		Currency:          "USD",
		ExternalPaymentID: "pi_create_1",
		Description:       "  two books  ",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.ID != "ORD-001" {
		t.Fatalf("unexpected order id: %s", order.ID)
	}
	if order.Status != core.OrderStatusPending {
		t.Fatalf("expected default pending status, got %s", order.Status)
	}
	if order.Currency != "usd" {
		t.Fatalf("expected normalized currency, got %q", order.Currency)
	}
	if order.Description != "two books" {
		t.Fatalf("expected trimmed description, got %q", order.Description)
	}

	byPayment, err := ledger.FindOrderByPaymentID(context.Background(), "pi_create_1")
	if err != nil {
		t.Fatalf("find by payment id: %v", err)
	}
	if byPayment.ID != order.ID {
		t.Fatalf("payment lookup returned %s, want %s", byPayment.ID, order.ID)
	}

	byID, err := ledger.GetOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if byID.Amount != 2500 {
		t.Fatalf("unexpected amount: %d", byID.Amount)
	}
}

func TestMemoryLedgerCreateOrderRejectsNegativeAmount(t *testing.T) {
	ledger := NewMemoryLedger(false)

	_, err := ledger.CreateOrder(context.Background(), core.CreateOrderInput{Amount: -1})
	if err == nil {
		t.Fatal("expected error for negative amount")
	}
	assertCategory(t, err, goerrors.CategoryBadInput)
}

func TestMemoryLedgerCreateOrderRejectsDuplicatePaymentID(t *testing.T) {
	ledger := NewMemoryLedger(false)

	if _, err := ledger.CreateOrder(context.Background(), core.CreateOrderInput{
		Amount:            100,
		ExternalPaymentID: "pi_dup",
	}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := ledger.CreateOrder(context.Background(), core.CreateOrderInput{
		Amount:            200,
		ExternalPaymentID: "pi_dup",
	})
	if err == nil {
		t.Fatal("expected conflict for duplicate payment id")
	}
	assertCategory(t, err, goerrors.CategoryConflict)

	orders, err := ledger.ListOrders(context.Background())
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected single order after rejected duplicate, got %d", len(orders))
	}
}

func TestMemoryLedgerLazyCustomerCreationAndReuse(t *testing.T) {
	ledger := NewMemoryLedger(false)

	first, err := ledger.CreateOrder(context.Background(), core.CreateOrderInput{
		Amount:             100,
		ExternalPaymentID:  "pi_cust_1",
		ExternalCustomerID: "cus_lazy",
	})
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if first.CustomerID == "" {
		t.Fatal("expected lazily created customer id")
	}

	second, err := ledger.CreateOrder(context.Background(), core.CreateOrderInput{
		Amount:             200,
		ExternalPaymentID:  "pi_cust_2",
		ExternalCustomerID: "cus_lazy",
	})
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if second.CustomerID != first.CustomerID {
		t.Fatalf("expected customer reuse, got %s and %s", first.CustomerID, second.CustomerID)
	}

	customers, err := ledger.ListCustomers(context.Background())
	if err != nil {
		t.Fatalf("list customers: %v", err)
	}
	if len(customers) != 1 {
		t.Fatalf("expected one customer, got %d", len(customers))
	}
	if customers[0].ExternalCustomerID != "cus_lazy" {
		t.Fatalf("unexpected external customer id: %s", customers[0].ExternalCustomerID)
	}
}

func TestMemoryLedgerUpdateOrderStatus(t *testing.T) {
	ledger := NewMemoryLedger(false)

	order, err := ledger.CreateOrder(context.Background(), core.CreateOrderInput{Amount: 100})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	updated, err := ledger.UpdateOrderStatus(context.Background(), order.ID, core.OrderStatusCompleted)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != core.OrderStatusCompleted {
		t.Fatalf("unexpected status: %s", updated.Status)
	}

	if _, err := ledger.UpdateOrderStatus(context.Background(), order.ID, core.OrderStatus("bogus")); err == nil {
		t.Fatal("expected invalid status rejection")
	}

	_, err = ledger.UpdateOrderStatus(context.Background(), "ORD-999", core.OrderStatusFailed)
	if err == nil {
		t.Fatal("expected not found for unknown order")
	}
	assertCategory(t, err, goerrors.CategoryNotFound)
}

func TestMemoryLedgerMarkOrderPaid(t *testing.T) {
	ledger := NewMemoryLedger(false)

	order, err := ledger.CreateOrder(context.Background(), core.CreateOrderInput{
		Amount:            100,
		ExternalPaymentID: "pi_mark_paid",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	paid, err := ledger.MarkOrderPaid(context.Background(), "pi_mark_paid")
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.ID != order.ID {
		t.Fatalf("mark paid touched %s, want %s", paid.ID, order.ID)
	}
	if paid.Status != core.OrderStatusPaid {
		t.Fatalf("unexpected status: %s", paid.Status)
	}

	_, err = ledger.MarkOrderPaid(context.Background(), "pi_missing")
	if err == nil {
		t.Fatal("expected not found for unknown payment id")
	}
	assertCategory(t, err, goerrors.CategoryNotFound)
}

func TestMemoryLedgerCreatePendingOrderValidation(t *testing.T) {
	ledger := NewMemoryLedger(true)

	pending, err := ledger.CreatePendingOrder(context.Background(), core.PendingOrderInput{
		Amount:            1500,
		Currency:          "eur",
		ExternalPaymentID: "pi_pending_1",
	})
	if err != nil {
		t.Fatalf("create pending order: %v", err)
	}
	if pending.Status != core.OrderStatusPending {
		t.Fatalf("unexpected status: %s", pending.Status)
	}
	if pending.CustomerID == "" {
		t.Fatal("expected pending order tied to the seeded default customer")
	}

	if _, err := ledger.CreatePendingOrder(context.Background(), core.PendingOrderInput{
		Amount: 0, ExternalPaymentID: "pi_pending_2",
	}); err == nil {
		t.Fatal("expected rejection for non positive amount")
	}
	if _, err := ledger.CreatePendingOrder(context.Background(), core.PendingOrderInput{
		Amount: 100,
	}); err == nil {
		t.Fatal("expected rejection for missing payment id")
	}
}

func TestMemoryLedgerSeedSampleData(t *testing.T) {
	ledger := NewMemoryLedger(true)

	orders, customers := ledger.Counts()
	if orders != 1 || customers != 2 {
		t.Fatalf("unexpected seed counts: %d orders %d customers", orders, customers)
	}

	seeded, err := ledger.FindOrderByPaymentID(context.Background(), "pi_1234567890")
	if err != nil {
		t.Fatalf("seeded order lookup: %v", err)
	}
	if seeded.Amount != 5000 || seeded.Status != core.OrderStatusPending {
		t.Fatalf("unexpected seeded order: %+v", seeded)
	}
}

func TestMemoryLedgerResetReseeds(t *testing.T) {
	ledger := NewMemoryLedger(true)

	if _, err := ledger.CreateOrder(context.Background(), core.CreateOrderInput{
		Amount:            100,
		ExternalPaymentID: "pi_pre_reset",
	}); err != nil {
		t.Fatalf("create order: %v", err)
	}

	if err := ledger.Reset(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if _, err := ledger.FindOrderByPaymentID(context.Background(), "pi_pre_reset"); err == nil {
		t.Fatal("expected pre-reset order to be gone")
	}
	orders, customers := ledger.Counts()
	if orders != 1 || customers != 2 {
		t.Fatalf("expected reseeded counts, got %d orders %d customers", orders, customers)
	}
	// id sequences restart after reset
	reseeded, err := ledger.GetOrder(context.Background(), "ORD-001")
	if err != nil {
		t.Fatalf("reseeded order lookup: %v", err)
	}
	if reseeded.ExternalPaymentID != "pi_1234567890" {
		t.Fatalf("unexpected reseeded order: %+v", reseeded)
	}
}

func TestMemoryLedgerConcurrentCreates(t *testing.T) {
	ledger := NewMemoryLedger(false)

	const workers = 64
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := ledger.CreateOrder(context.Background(), core.CreateOrderInput{
				Amount:            int64(i + 1),
				ExternalPaymentID: fmt.Sprintf("pi_race_%d", i),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent create: %v", err)
		}
	}

	orders, err := ledger.ListOrders(context.Background())
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(orders) != workers {
		t.Fatalf("expected %d orders, got %d", workers, len(orders))
	}
	seen := map[string]bool{}
	for _, order := range orders {
		if seen[order.ID] {
			t.Fatalf("duplicate order id: %s", order.ID)
		}
		seen[order.ID] = true
		indexed, err := ledger.FindOrderByPaymentID(context.Background(), order.ExternalPaymentID)
		if err != nil {
			t.Fatalf("index lookup for %s: %v", order.ExternalPaymentID, err)
		}
		if indexed.ID != order.ID {
			t.Fatalf("index mismatch for %s: got %s", order.ExternalPaymentID, indexed.ID)
		}
	}
}

func TestMemoryLedgerRecordsOrderSnapshots(t *testing.T) {
	journal := &stubJournal{}
	ledger := NewMemoryLedger(false)
	ledger.Journal = journal

	order, err := ledger.CreateOrder(context.Background(), core.CreateOrderInput{
		Amount:            100,
		ExternalPaymentID: "pi_journal",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if _, err := ledger.MarkOrderPaid(context.Background(), "pi_journal"); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	if len(journal.orders) != 2 {
		t.Fatalf("expected two snapshots, got %d", len(journal.orders))
	}
	if journal.orders[0].ID != order.ID || journal.orders[0].Status != core.OrderStatusPending {
		t.Fatalf("unexpected first snapshot: %+v", journal.orders[0])
	}
	if journal.orders[1].Status != core.OrderStatusPaid {
		t.Fatalf("unexpected second snapshot: %+v", journal.orders[1])
	}
}

type stubJournal struct {
	mu      sync.Mutex
	entries []core.JournalEntry
	orders  []core.Order
}

func (j *stubJournal) Append(_ context.Context, entry core.JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
	return nil
}

func (j *stubJournal) RecordOrder(_ context.Context, order core.Order) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.orders = append(j.orders, order)
	return nil
}

func assertCategory(t *testing.T, err error, category goerrors.Category) {
	t.Helper()
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		t.Fatalf("expected rich error, got %T: %v", err, err)
	}
	if richErr.Category != category {
		t.Fatalf("unexpected category: got %s want %s", richErr.Category, category)
	}
}
