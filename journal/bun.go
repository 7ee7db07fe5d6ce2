// Package journal persists delivery outcomes and order snapshots so replays
// and handler failures stay observable after the webhook response is gone.
package journal

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-payment-ingest/core"
)

// BunJournal writes journal rows through bun repositories. It accepts either
// a *bun.DB or a persistence client exposing one.
type BunJournal struct {
	db           *bun.DB
	eventRepo    repository.Repository[*webhookEventRecord]
	snapshotRepo repository.Repository[*orderSnapshotRecord]

	Now func() time.Time
}

func NewBunJournal(persistenceClient any) (*BunJournal, error) {
	db, err := resolveBunDB(persistenceClient)
	if err != nil {
		return nil, err
	}

	eventRepo := repository.NewRepository[*webhookEventRecord](db, webhookEventHandlers())
	if validator, ok := eventRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("journal: invalid webhook event repository wiring: %w", err)
		}
	}
	snapshotRepo := repository.NewRepository[*orderSnapshotRecord](db, orderSnapshotHandlers())
	if validator, ok := snapshotRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("journal: invalid order snapshot repository wiring: %w", err)
		}
	}

	return &BunJournal{
		db:           db,
		eventRepo:    eventRepo,
		snapshotRepo: snapshotRepo,
	}, nil
}

// EnsureSchema creates the journal tables when they do not exist yet.
func (j *BunJournal) EnsureSchema(ctx context.Context) error {
	if j == nil || j.db == nil {
		return fmt.Errorf("journal: bun journal is not configured")
	}
	if _, err := j.db.NewCreateTable().
		Model((*webhookEventRecord)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("journal: create webhook_events table: %w", err)
	}
	if _, err := j.db.NewCreateTable().
		Model((*orderSnapshotRecord)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("journal: create order_snapshots table: %w", err)
	}
	return nil
}

func (j *BunJournal) Append(ctx context.Context, entry core.JournalEntry) error {
	if j == nil || j.eventRepo == nil {
		return fmt.Errorf("journal: bun journal is not configured")
	}
	if strings.TrimSpace(entry.ProviderID) == "" {
		return fmt.Errorf("journal: provider id is required")
	}
	if strings.TrimSpace(entry.Status) == "" {
		return fmt.Errorf("journal: entry status is required")
	}

	record := &webhookEventRecord{
		ID:         uuid.NewString(),
		ProviderID: strings.TrimSpace(entry.ProviderID),
		EventID:    strings.TrimSpace(entry.EventID),
		EventType:  strings.TrimSpace(entry.EventType),
		Status:     strings.TrimSpace(entry.Status),
		Error:      strings.TrimSpace(entry.Error),
		Metadata:   entry.Metadata,
		CreatedAt:  j.now(),
	}
	_, err := j.eventRepo.Create(ctx, record)
	return err
}

func (j *BunJournal) RecordOrder(ctx context.Context, order core.Order) error {
	if j == nil || j.snapshotRepo == nil {
		return fmt.Errorf("journal: bun journal is not configured")
	}
	if strings.TrimSpace(order.ID) == "" {
		return fmt.Errorf("journal: order id is required")
	}

	record := &orderSnapshotRecord{
		ID:                uuid.NewString(),
		OrderID:           order.ID,
		Status:            string(order.Status),
		Amount:            order.Amount,
		Currency:          order.Currency,
		CustomerID:        order.CustomerID,
		ExternalPaymentID: order.ExternalPaymentID,
		Description:       order.Description,
		CreatedAt:         j.now(),
	}
	_, err := j.snapshotRepo.Create(ctx, record)
	return err
}

// EventsByStatus returns journal entries with the given status, newest first.
func (j *BunJournal) EventsByStatus(ctx context.Context, status string) ([]core.JournalEntry, error) {
	if j == nil || j.db == nil {
		return nil, fmt.Errorf("journal: bun journal is not configured")
	}
	var records []webhookEventRecord
	if err := j.db.NewSelect().
		Model(&records).
		Where("?TableAlias.status = ?", strings.TrimSpace(status)).
		Order("created_at DESC").
		Scan(ctx); err != nil {
		return nil, err
	}
	entries := make([]core.JournalEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, core.JournalEntry{
			ProviderID: record.ProviderID,
			EventID:    record.EventID,
			EventType:  record.EventType,
			Status:     record.Status,
			Error:      record.Error,
			Metadata:   record.Metadata,
		})
	}
	return entries, nil
}

// OrderHistory returns the recorded snapshots for one order, oldest first.
func (j *BunJournal) OrderHistory(ctx context.Context, orderID string) ([]core.Order, error) {
	if j == nil || j.db == nil {
		return nil, fmt.Errorf("journal: bun journal is not configured")
	}
	var records []orderSnapshotRecord
	if err := j.db.NewSelect().
		Model(&records).
		Where("?TableAlias.order_id = ?", strings.TrimSpace(orderID)).
		Order("created_at ASC").
		Scan(ctx); err != nil {
		return nil, err
	}
	orders := make([]core.Order, 0, len(records))
	for _, record := range records {
		orders = append(orders, core.Order{
			ID:                record.OrderID,
			Status:            core.OrderStatus(record.Status),
			Amount:            record.Amount,
			Currency:          record.Currency,
			CustomerID:        record.CustomerID,
			ExternalPaymentID: record.ExternalPaymentID,
			Description:       record.Description,
		})
	}
	return orders, nil
}

func (j *BunJournal) DB() *bun.DB {
	if j == nil {
		return nil
	}
	return j.db
}

func (j *BunJournal) now() time.Time {
	if j != nil && j.Now != nil {
		return j.Now().UTC()
	}
	return time.Now().UTC()
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("journal: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("journal: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("journal: unsupported persistence client type %T", candidate)
	}
}

var _ core.DeliveryJournal = (*BunJournal)(nil)
