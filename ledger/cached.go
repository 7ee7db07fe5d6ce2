package ledger

import (
	"context"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-payment-ingest/core"
)

const (
	orderCacheKeyPrefix    = "payment-ingest::order::v1"
	customerCacheKeyPrefix = "payment-ingest::customer::v1"
	paymentCacheKeyPrefix  = "payment-ingest::payment_id::v1"
)

// CachedLedger front-loads the read-heavy admin surface with a cache while
// funneling every write through the base ledger and invalidating the touched
// keys. List operations stay uncached; they back the demo UI only.
type CachedLedger struct {
	base  core.Ledger
	cache repositorycache.CacheService
}

func NewCachedLedger(base core.Ledger, cacheService repositorycache.CacheService) (*CachedLedger, error) {
	if base == nil {
		return nil, ledgerInternal("ledger: base ledger is required", nil)
	}
	if cacheService == nil {
		return nil, ledgerInternal("ledger: cache service is required", nil)
	}
	return &CachedLedger{base: base, cache: cacheService}, nil
}

func OrderCacheKey(orderID string) string {
	return orderCacheKeyPrefix + "::" + url.PathEscape(strings.TrimSpace(orderID))
}

func CustomerCacheKey(customerID string) string {
	return customerCacheKeyPrefix + "::" + url.PathEscape(strings.TrimSpace(customerID))
}

func PaymentCacheKey(externalPaymentID string) string {
	return paymentCacheKeyPrefix + "::" + url.PathEscape(strings.TrimSpace(externalPaymentID))
}

func (l *CachedLedger) GetOrder(ctx context.Context, orderID string) (core.Order, error) {
	if l == nil || l.base == nil || l.cache == nil {
		return core.Order{}, ledgerInternal("ledger: cached ledger is not configured", nil)
	}
	return repositorycache.GetOrFetch(ctx, l.cache, OrderCacheKey(orderID), func(ctx context.Context) (core.Order, error) {
		return l.base.GetOrder(ctx, orderID)
	})
}

func (l *CachedLedger) GetCustomer(ctx context.Context, customerID string) (core.Customer, error) {
	if l == nil || l.base == nil || l.cache == nil {
		return core.Customer{}, ledgerInternal("ledger: cached ledger is not configured", nil)
	}
	return repositorycache.GetOrFetch(ctx, l.cache, CustomerCacheKey(customerID), func(ctx context.Context) (core.Customer, error) {
		return l.base.GetCustomer(ctx, customerID)
	})
}

func (l *CachedLedger) FindOrderByPaymentID(ctx context.Context, externalPaymentID string) (core.Order, error) {
	if l == nil || l.base == nil || l.cache == nil {
		return core.Order{}, ledgerInternal("ledger: cached ledger is not configured", nil)
	}
	return repositorycache.GetOrFetch(ctx, l.cache, PaymentCacheKey(externalPaymentID), func(ctx context.Context) (core.Order, error) {
		return l.base.FindOrderByPaymentID(ctx, externalPaymentID)
	})
}

func (l *CachedLedger) CreateOrder(ctx context.Context, input core.CreateOrderInput) (core.Order, error) {
	if l == nil || l.base == nil || l.cache == nil {
		return core.Order{}, ledgerInternal("ledger: cached ledger is not configured", nil)
	}
	order, err := l.base.CreateOrder(ctx, input)
	if err != nil {
		return core.Order{}, err
	}
	if err := l.invalidateOrder(ctx, order); err != nil {
		return core.Order{}, err
	}
	return order, nil
}

func (l *CachedLedger) CreatePendingOrder(ctx context.Context, input core.PendingOrderInput) (core.Order, error) {
	if l == nil || l.base == nil || l.cache == nil {
		return core.Order{}, ledgerInternal("ledger: cached ledger is not configured", nil)
	}
	order, err := l.base.CreatePendingOrder(ctx, input)
	if err != nil {
		return core.Order{}, err
	}
	if err := l.invalidateOrder(ctx, order); err != nil {
		return core.Order{}, err
	}
	return order, nil
}

func (l *CachedLedger) UpdateOrderStatus(ctx context.Context, orderID string, status core.OrderStatus) (core.Order, error) {
	if l == nil || l.base == nil || l.cache == nil {
		return core.Order{}, ledgerInternal("ledger: cached ledger is not configured", nil)
	}
	order, err := l.base.UpdateOrderStatus(ctx, orderID, status)
	if err != nil {
		return core.Order{}, err
	}
	if err := l.invalidateOrder(ctx, order); err != nil {
		return core.Order{}, err
	}
	return order, nil
}

func (l *CachedLedger) MarkOrderPaid(ctx context.Context, externalPaymentID string) (core.Order, error) {
	if l == nil || l.base == nil || l.cache == nil {
		return core.Order{}, ledgerInternal("ledger: cached ledger is not configured", nil)
	}
	order, err := l.base.MarkOrderPaid(ctx, externalPaymentID)
	if err != nil {
		return core.Order{}, err
	}
	if err := l.invalidateOrder(ctx, order); err != nil {
		return core.Order{}, err
	}
	return order, nil
}

func (l *CachedLedger) ListOrders(ctx context.Context) ([]core.Order, error) {
	if l == nil || l.base == nil {
		return nil, ledgerInternal("ledger: cached ledger is not configured", nil)
	}
	return l.base.ListOrders(ctx)
}

func (l *CachedLedger) ListCustomers(ctx context.Context) ([]core.Customer, error) {
	if l == nil || l.base == nil {
		return nil, ledgerInternal("ledger: cached ledger is not configured", nil)
	}
	return l.base.ListCustomers(ctx)
}

// Reset invalidates every cacheable key before clearing the base store so a
// reseeded ledger never serves pre-reset reads from the cache.
func (l *CachedLedger) Reset(ctx context.Context) error {
	if l == nil || l.base == nil || l.cache == nil {
		return ledgerInternal("ledger: cached ledger is not configured", nil)
	}
	orders, err := l.base.ListOrders(ctx)
	if err != nil {
		return err
	}
	customers, err := l.base.ListCustomers(ctx)
	if err != nil {
		return err
	}
	for _, order := range orders {
		if err := l.invalidateOrder(ctx, order); err != nil {
			return err
		}
	}
	for _, customer := range customers {
		if err := l.cache.Delete(ctx, CustomerCacheKey(customer.ID)); err != nil {
			return err
		}
	}
	return l.base.Reset(ctx)
}

func (l *CachedLedger) invalidateOrder(ctx context.Context, order core.Order) error {
	if err := l.cache.Delete(ctx, OrderCacheKey(order.ID)); err != nil {
		return err
	}
	if strings.TrimSpace(order.ExternalPaymentID) != "" {
		if err := l.cache.Delete(ctx, PaymentCacheKey(order.ExternalPaymentID)); err != nil {
			return err
		}
	}
	if strings.TrimSpace(order.CustomerID) != "" {
		if err := l.cache.Delete(ctx, CustomerCacheKey(order.CustomerID)); err != nil {
			return err
		}
	}
	return nil
}

var _ core.Ledger = (*CachedLedger)(nil)
