package journal

import (
	"time"

	"github.com/uptrace/bun"
)

type webhookEventRecord struct {
	bun.BaseModel `bun:"table:webhook_events,alias:we"`

	ID         string         `bun:"id,pk"`
	ProviderID string         `bun:"provider_id,notnull"`
	EventID    string         `bun:"event_id"`
	EventType  string         `bun:"event_type"`
	Status     string         `bun:"status,notnull"`
	Error      string         `bun:"error"`
	Metadata   map[string]any `bun:"metadata,type:jsonb"`
	CreatedAt  time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type orderSnapshotRecord struct {
	bun.BaseModel `bun:"table:order_snapshots,alias:os"`

	ID                string    `bun:"id,pk"`
	OrderID           string    `bun:"order_id,notnull"`
	Status            string    `bun:"status,notnull"`
	Amount            int64     `bun:"amount,notnull"`
	Currency          string    `bun:"currency,notnull"`
	CustomerID        string    `bun:"customer_id"`
	ExternalPaymentID string    `bun:"external_payment_id"`
	Description       string    `bun:"description"`
	CreatedAt         time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
