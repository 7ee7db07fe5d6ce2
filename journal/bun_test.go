package journal

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/goliatone/go-payment-ingest/core"
)

func newSQLiteJournal(t *testing.T) *BunJournal {
	t.Helper()
	dsn := fmt.Sprintf(
		"file:journal-test-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(),
	)
	bunJournal, closeFn, err := Open(core.JournalConfig{Driver: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { _ = closeFn() })
	if err := bunJournal.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return bunJournal
}

func TestBunJournalAppendAndQuery(t *testing.T) {
	bunJournal := newSQLiteJournal(t)

	entries := []core.JournalEntry{
		{ProviderID: "stripe", EventID: "evt_1", EventType: "charge.succeeded", Status: core.JournalStatusProcessed},
		{ProviderID: "stripe", EventID: "evt_2", EventType: "plan.created", Status: core.JournalStatusHandlerMiss},
		{ProviderID: "stripe", EventID: "evt_3", EventType: "charge.refunded", Status: core.JournalStatusHandlerFailed, Error: "ledger unavailable"},
	}
	for _, entry := range entries {
		if err := bunJournal.Append(context.Background(), entry); err != nil {
			t.Fatalf("append %s: %v", entry.EventID, err)
		}
	}

	processed, err := bunJournal.EventsByStatus(context.Background(), core.JournalStatusProcessed)
	if err != nil {
		t.Fatalf("query processed: %v", err)
	}
	if len(processed) != 1 || processed[0].EventID != "evt_1" {
		t.Fatalf("unexpected processed entries: %+v", processed)
	}

	failed, err := bunJournal.EventsByStatus(context.Background(), core.JournalStatusHandlerFailed)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(failed) != 1 || failed[0].Error != "ledger unavailable" {
		t.Fatalf("unexpected failed entries: %+v", failed)
	}
}

func TestBunJournalAppendValidation(t *testing.T) {
	bunJournal := newSQLiteJournal(t)

	if err := bunJournal.Append(context.Background(), core.JournalEntry{Status: core.JournalStatusProcessed}); err == nil {
		t.Fatal("expected missing provider id rejection")
	}
	if err := bunJournal.Append(context.Background(), core.JournalEntry{ProviderID: "stripe"}); err == nil {
		t.Fatal("expected missing status rejection")
	}
}

func TestBunJournalOrderHistory(t *testing.T) {
	bunJournal := newSQLiteJournal(t)
	base := time.Unix(1710000000, 0).UTC()
	step := 0
	bunJournal.Now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Second)
	}

	order := core.Order{
		ID:                "ORD-001",
		Status:            core.OrderStatusPending,
		Amount:            5000,
		Currency:          "usd",
		ExternalPaymentID: "pi_history",
	}
	if err := bunJournal.RecordOrder(context.Background(), order); err != nil {
		t.Fatalf("record pending: %v", err)
	}
	order.Status = core.OrderStatusPaid
	if err := bunJournal.RecordOrder(context.Background(), order); err != nil {
		t.Fatalf("record paid: %v", err)
	}

	history, err := bunJournal.OrderHistory(context.Background(), "ORD-001")
	if err != nil {
		t.Fatalf("order history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected two snapshots, got %d", len(history))
	}
	if history[0].Status != core.OrderStatusPending || history[1].Status != core.OrderStatusPaid {
		t.Fatalf("unexpected history order: %+v", history)
	}
	if err := bunJournal.RecordOrder(context.Background(), core.Order{}); err == nil {
		t.Fatal("expected missing order id rejection")
	}
}

func TestOpenRejectsBadConfig(t *testing.T) {
	if _, _, err := Open(core.JournalConfig{}); err == nil {
		t.Fatal("expected error for empty config")
	}
	if _, _, err := Open(core.JournalConfig{Driver: "mysql", DSN: "x"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestMemoryJournalRecords(t *testing.T) {
	memory := NewMemoryJournal()
	if err := memory.Append(context.Background(), core.JournalEntry{ProviderID: "stripe", Status: core.JournalStatusProcessed}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := memory.RecordOrder(context.Background(), core.Order{ID: "ORD-001"}); err != nil {
		t.Fatalf("record order: %v", err)
	}
	if len(memory.Entries()) != 1 || len(memory.Orders()) != 1 {
		t.Fatalf("unexpected contents: %d entries, %d orders", len(memory.Entries()), len(memory.Orders()))
	}
}
