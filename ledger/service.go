package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-payment-ingest/core"
)

// MemoryLedger is the in-process order store. A single mutex guards the order
// map, the payment-id index, the customer map, and both id counters so every
// mutation is visible as one atomic step: an order is never observable in the
// primary map without its index entry, and two concurrent creates can never
// allocate the same id.
type MemoryLedger struct {
	Logger  core.Logger
	Journal core.DeliveryJournal

	mu                sync.Mutex
	orders            map[string]core.Order
	ordersByPaymentID map[string]string
	customers         map[string]core.Customer
	orderSeq          int
	customerSeq       int
	seedSampleData    bool
	defaultCustomerID string
}

func NewMemoryLedger(seedSampleData bool) *MemoryLedger {
	ledger := &MemoryLedger{
		orders:            map[string]core.Order{},
		ordersByPaymentID: map[string]string{},
		customers:         map[string]core.Customer{},
		seedSampleData:    seedSampleData,
	}
	if seedSampleData {
		ledger.mu.Lock()
		ledger.seedLocked()
		ledger.mu.Unlock()
	}
	return ledger
}

func (l *MemoryLedger) CreateOrder(ctx context.Context, input core.CreateOrderInput) (core.Order, error) {
	if l == nil {
		return core.Order{}, ledgerInternal("ledger: store is nil", nil)
	}
	if input.Amount < 0 {
		return core.Order{}, ledgerBadInput("ledger: amount must not be negative", map[string]any{
			"amount": input.Amount,
		})
	}
	status := input.Status
	if status == "" {
		status = core.OrderStatusPending
	}
	if !status.Valid() {
		return core.Order{}, ledgerBadInput(
			fmt.Sprintf("ledger: invalid order status %q", status),
			map[string]any{"status": string(status)},
		)
	}
	paymentID := strings.TrimSpace(input.ExternalPaymentID)

	l.mu.Lock()
	defer l.mu.Unlock()

	if paymentID != "" {
		if existing, ok := l.ordersByPaymentID[paymentID]; ok {
			return core.Order{}, ledgerConflict(
				fmt.Sprintf("ledger: order already exists for payment id %s", paymentID),
				map[string]any{"order_id": existing, "external_payment_id": paymentID},
			)
		}
	}

	customerID := ""
	if external := strings.TrimSpace(input.ExternalCustomerID); external != "" {
		customerID = l.resolveCustomerLocked(external)
	}

	order := core.Order{
		ID:                l.nextOrderIDLocked(),
		Status:            status,
		Amount:            input.Amount,
		Currency:          normalizeCurrency(input.Currency),
		CustomerID:        customerID,
		ExternalPaymentID: paymentID,
		Description:       strings.TrimSpace(input.Description),
	}
	l.orders[order.ID] = order
	if paymentID != "" {
		l.ordersByPaymentID[paymentID] = order.ID
	}

	l.logInfo(ctx, "order created", map[string]any{
		"order_id":            order.ID,
		"status":              string(order.Status),
		"amount":              order.Amount,
		"currency":            order.Currency,
		"external_payment_id": order.ExternalPaymentID,
	})
	l.recordOrder(ctx, order)
	return order, nil
}

func (l *MemoryLedger) CreatePendingOrder(ctx context.Context, input core.PendingOrderInput) (core.Order, error) {
	if l == nil {
		return core.Order{}, ledgerInternal("ledger: store is nil", nil)
	}
	if input.Amount <= 0 {
		return core.Order{}, ledgerBadInput("ledger: amount must be positive", map[string]any{
			"amount": input.Amount,
		})
	}
	paymentID := strings.TrimSpace(input.ExternalPaymentID)
	if paymentID == "" {
		return core.Order{}, ledgerBadInput("ledger: external payment id is required", nil)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.ordersByPaymentID[paymentID]; ok {
		return core.Order{}, ledgerConflict(
			fmt.Sprintf("ledger: order already exists for payment id %s", paymentID),
			map[string]any{"order_id": existing, "external_payment_id": paymentID},
		)
	}

	order := core.Order{
		ID:                l.nextOrderIDLocked(),
		Status:            core.OrderStatusPending,
		Amount:            input.Amount,
		Currency:          normalizeCurrency(input.Currency),
		CustomerID:        l.defaultCustomerID,
		ExternalPaymentID: paymentID,
		Description:       strings.TrimSpace(input.Description),
	}
	l.orders[order.ID] = order
	l.ordersByPaymentID[paymentID] = order.ID

	l.logInfo(ctx, "pending order created", map[string]any{
		"order_id":            order.ID,
		"amount":              order.Amount,
		"currency":            order.Currency,
		"external_payment_id": order.ExternalPaymentID,
	})
	l.recordOrder(ctx, order)
	return order, nil
}

func (l *MemoryLedger) UpdateOrderStatus(ctx context.Context, orderID string, status core.OrderStatus) (core.Order, error) {
	if l == nil {
		return core.Order{}, ledgerInternal("ledger: store is nil", nil)
	}
	if !status.Valid() {
		return core.Order{}, ledgerBadInput(
			fmt.Sprintf("ledger: invalid order status %q", status),
			map[string]any{"status": string(status)},
		)
	}
	orderID = strings.TrimSpace(orderID)

	l.mu.Lock()
	order, ok := l.orders[orderID]
	if !ok {
		l.mu.Unlock()
		return core.Order{}, ledgerNotFound(
			fmt.Sprintf("ledger: order not found: %s", orderID),
			map[string]any{"order_id": orderID},
		)
	}
	previous := order.Status
	order.Status = status
	l.orders[orderID] = order
	l.mu.Unlock()

	l.logInfo(ctx, "order status updated", map[string]any{
		"order_id":   orderID,
		"old_status": string(previous),
		"new_status": string(status),
	})
	l.recordOrder(ctx, order)
	return order, nil
}

func (l *MemoryLedger) FindOrderByPaymentID(ctx context.Context, externalPaymentID string) (core.Order, error) {
	if l == nil {
		return core.Order{}, ledgerInternal("ledger: store is nil", nil)
	}
	externalPaymentID = strings.TrimSpace(externalPaymentID)

	l.mu.Lock()
	defer l.mu.Unlock()
	orderID, ok := l.ordersByPaymentID[externalPaymentID]
	if !ok {
		return core.Order{}, ledgerNotFound(
			fmt.Sprintf("ledger: no order for payment id %s", externalPaymentID),
			map[string]any{"external_payment_id": externalPaymentID},
		)
	}
	order, ok := l.orders[orderID]
	if !ok {
		return core.Order{}, ledgerInternal("ledger: payment index points at missing order", map[string]any{
			"order_id":            orderID,
			"external_payment_id": externalPaymentID,
		})
	}
	return order, nil
}

func (l *MemoryLedger) MarkOrderPaid(ctx context.Context, externalPaymentID string) (core.Order, error) {
	if l == nil {
		return core.Order{}, ledgerInternal("ledger: store is nil", nil)
	}
	externalPaymentID = strings.TrimSpace(externalPaymentID)

	l.mu.Lock()
	orderID, ok := l.ordersByPaymentID[externalPaymentID]
	if !ok {
		l.mu.Unlock()
		return core.Order{}, ledgerNotFound(
			fmt.Sprintf("ledger: no order for payment id %s", externalPaymentID),
			map[string]any{"external_payment_id": externalPaymentID},
		)
	}
	order := l.orders[orderID]
	previous := order.Status
	order.Status = core.OrderStatusPaid
	l.orders[orderID] = order
	l.mu.Unlock()

	l.logInfo(ctx, "order marked paid", map[string]any{
		"order_id":            order.ID,
		"old_status":          string(previous),
		"external_payment_id": externalPaymentID,
	})
	l.recordOrder(ctx, order)
	return order, nil
}

func (l *MemoryLedger) GetOrder(_ context.Context, orderID string) (core.Order, error) {
	if l == nil {
		return core.Order{}, ledgerInternal("ledger: store is nil", nil)
	}
	orderID = strings.TrimSpace(orderID)

	l.mu.Lock()
	defer l.mu.Unlock()
	order, ok := l.orders[orderID]
	if !ok {
		return core.Order{}, ledgerNotFound(
			fmt.Sprintf("ledger: order not found: %s", orderID),
			map[string]any{"order_id": orderID},
		)
	}
	return order, nil
}

func (l *MemoryLedger) GetCustomer(_ context.Context, customerID string) (core.Customer, error) {
	if l == nil {
		return core.Customer{}, ledgerInternal("ledger: store is nil", nil)
	}
	customerID = strings.TrimSpace(customerID)

	l.mu.Lock()
	defer l.mu.Unlock()
	customer, ok := l.customers[customerID]
	if !ok {
		return core.Customer{}, ledgerNotFound(
			fmt.Sprintf("ledger: customer not found: %s", customerID),
			map[string]any{"customer_id": customerID},
		)
	}
	return customer, nil
}

func (l *MemoryLedger) ListOrders(context.Context) ([]core.Order, error) {
	if l == nil {
		return nil, ledgerInternal("ledger: store is nil", nil)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	orders := make([]core.Order, 0, len(l.orders))
	for _, order := range l.orders {
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	return orders, nil
}

func (l *MemoryLedger) ListCustomers(context.Context) ([]core.Customer, error) {
	if l == nil {
		return nil, ledgerInternal("ledger: store is nil", nil)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	customers := make([]core.Customer, 0, len(l.customers))
	for _, customer := range l.customers {
		customers = append(customers, customer)
	}
	sort.Slice(customers, func(i, j int) bool { return customers[i].ID < customers[j].ID })
	return customers, nil
}

// Reset drops everything and reseeds under the same write lock mutations use,
// so in-flight handler calls never observe a half-cleared store.
func (l *MemoryLedger) Reset(ctx context.Context) error {
	if l == nil {
		return ledgerInternal("ledger: store is nil", nil)
	}
	l.mu.Lock()
	l.orders = map[string]core.Order{}
	l.ordersByPaymentID = map[string]string{}
	l.customers = map[string]core.Customer{}
	l.orderSeq = 0
	l.customerSeq = 0
	l.defaultCustomerID = ""
	if l.seedSampleData {
		l.seedLocked()
	}
	l.mu.Unlock()

	l.logInfo(ctx, "ledger reset", map[string]any{
		"seeded": l.seedSampleData,
	})
	return nil
}

// Counts returns the current order and customer totals for health reporting.
func (l *MemoryLedger) Counts() (orders int, customers int) {
	if l == nil {
		return 0, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.orders), len(l.customers)
}

func (l *MemoryLedger) seedLocked() {
	john := core.Customer{
		ID:                 l.nextCustomerIDLocked(),
		Name:               "John Doe",
		Email:              "john.doe@example.com",
		ExternalCustomerID: "cus_1234567890",
	}
	jane := core.Customer{
		ID:                 l.nextCustomerIDLocked(),
		Name:               "Jane Smith",
		Email:              "jane.smith@example.com",
		ExternalCustomerID: "cus_0987654321",
	}
	l.customers[john.ID] = john
	l.customers[jane.ID] = jane
	l.defaultCustomerID = john.ID

	order := core.Order{
		ID:                l.nextOrderIDLocked(),
		Status:            core.OrderStatusPending,
		Amount:            5000,
		Currency:          "usd",
		CustomerID:        john.ID,
		ExternalPaymentID: "pi_1234567890",
		Description:       "Sample order from provider payment",
	}
	l.orders[order.ID] = order
	l.ordersByPaymentID[order.ExternalPaymentID] = order.ID
}

func (l *MemoryLedger) resolveCustomerLocked(externalCustomerID string) string {
	for _, customer := range l.customers {
		if customer.ExternalCustomerID == externalCustomerID {
			return customer.ID
		}
	}
	customer := core.Customer{
		ID:                 l.nextCustomerIDLocked(),
		ExternalCustomerID: externalCustomerID,
	}
	customer.Name = "Customer " + customer.ID
	customer.Email = fmt.Sprintf("customer%d@example.com", l.customerSeq)
	l.customers[customer.ID] = customer
	return customer.ID
}

func (l *MemoryLedger) nextOrderIDLocked() string {
	l.orderSeq++
	return fmt.Sprintf("ORD-%03d", l.orderSeq)
}

func (l *MemoryLedger) nextCustomerIDLocked() string {
	l.customerSeq++
	return fmt.Sprintf("CUST-%03d", l.customerSeq)
}

func normalizeCurrency(currency string) string {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		return "usd"
	}
	return currency
}

func (l *MemoryLedger) recordOrder(ctx context.Context, order core.Order) {
	if l == nil || l.Journal == nil {
		return
	}
	if err := l.Journal.RecordOrder(ctx, order); err != nil {
		l.logger().WithContext(ctx).Warn("order snapshot journaling failed",
			"order_id", order.ID,
			"error", err.Error(),
		)
	}
}

func (l *MemoryLedger) logInfo(ctx context.Context, message string, fields map[string]any) {
	logger := l.logger()
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(core.FieldsLogger); ok {
		logger = fieldsLogger.WithFields(fields)
	}
	logger.Info(message, flattenFields(fields)...)
}

func (l *MemoryLedger) logger() core.Logger {
	if l != nil && l.Logger != nil {
		return l.Logger
	}
	return glog.Nop()
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}

var _ core.Ledger = (*MemoryLedger)(nil)
