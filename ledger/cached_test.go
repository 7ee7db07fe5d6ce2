package ledger

import (
	"context"
	"testing"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-payment-ingest/core"
)

func newTestCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}

func TestCachedLedgerRequiresDependencies(t *testing.T) {
	if _, err := NewCachedLedger(nil, newTestCacheService(t)); err == nil {
		t.Fatal("expected error for nil base ledger")
	}
	if _, err := NewCachedLedger(NewMemoryLedger(false), nil); err == nil {
		t.Fatal("expected error for nil cache service")
	}
}

func TestCachedLedgerServesReadsThroughCache(t *testing.T) {
	base := &countingLedger{Ledger: NewMemoryLedger(false)}
	cached, err := NewCachedLedger(base, newTestCacheService(t))
	if err != nil {
		t.Fatalf("new cached ledger: %v", err)
	}

	order, err := cached.CreateOrder(context.Background(), core.CreateOrderInput{
		Amount:            100,
		ExternalPaymentID: "pi_cached_1",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	for i := 0; i < 3; i++ {
		got, err := cached.GetOrder(context.Background(), order.ID)
		if err != nil {
			t.Fatalf("get order: %v", err)
		}
		if got.ID != order.ID {
			t.Fatalf("unexpected order: %+v", got)
		}
	}
	if base.getOrderCalls != 1 {
		t.Fatalf("expected single base read, got %d", base.getOrderCalls)
	}
}

func TestCachedLedgerInvalidatesOnStatusChange(t *testing.T) {
	base := &countingLedger{Ledger: NewMemoryLedger(false)}
	cached, err := NewCachedLedger(base, newTestCacheService(t))
	if err != nil {
		t.Fatalf("new cached ledger: %v", err)
	}

	order, err := cached.CreateOrder(context.Background(), core.CreateOrderInput{
		Amount:            100,
		ExternalPaymentID: "pi_cached_2",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if _, err := cached.GetOrder(context.Background(), order.ID); err != nil {
		t.Fatalf("warm read: %v", err)
	}
	if _, err := cached.MarkOrderPaid(context.Background(), "pi_cached_2"); err != nil {
		t.Fatalf("mark paid: %v", err)
	}

	got, err := cached.GetOrder(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("post-update read: %v", err)
	}
	if got.Status != core.OrderStatusPaid {
		t.Fatalf("expected invalidated cache to serve paid status, got %s", got.Status)
	}
}

func TestCachedLedgerResetDropsCachedEntries(t *testing.T) {
	cached, err := NewCachedLedger(NewMemoryLedger(true), newTestCacheService(t))
	if err != nil {
		t.Fatalf("new cached ledger: %v", err)
	}

	seeded, err := cached.FindOrderByPaymentID(context.Background(), "pi_1234567890")
	if err != nil {
		t.Fatalf("seeded lookup: %v", err)
	}
	if _, err := cached.UpdateOrderStatus(context.Background(), seeded.ID, core.OrderStatusCompleted); err != nil {
		t.Fatalf("update status: %v", err)
	}

	if err := cached.Reset(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}

	reseeded, err := cached.FindOrderByPaymentID(context.Background(), "pi_1234567890")
	if err != nil {
		t.Fatalf("post-reset lookup: %v", err)
	}
	if reseeded.Status != core.OrderStatusPending {
		t.Fatalf("expected reseeded pending order, got %s", reseeded.Status)
	}
}

func TestCachedLedgerCacheKeyContract(t *testing.T) {
	key := OrderCacheKey("ORD-001")
	if key != "payment-ingest::order::v1::ORD-001" {
		t.Fatalf("unexpected order cache key: %q", key)
	}
	key = PaymentCacheKey("pi_1 2")
	if key != "payment-ingest::payment_id::v1::pi_1%202" {
		t.Fatalf("unexpected payment cache key: %q", key)
	}
}

type countingLedger struct {
	core.Ledger
	getOrderCalls int
}

func (l *countingLedger) GetOrder(ctx context.Context, orderID string) (core.Order, error) {
	l.getOrderCalls++
	return l.Ledger.GetOrder(ctx, orderID)
}
