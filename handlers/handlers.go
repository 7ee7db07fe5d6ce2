// Package handlers maps provider webhook events onto ledger operations. Each
// handler claims a fixed set of dot-namespaced event types and performs at
// most one ledger write per delivery: reconcile an existing order by its
// external payment id when one exists, otherwise fall back to creating the
// order directly from the payload.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-payment-ingest/core"
)

// Default returns the full handler set in registration order.
func Default(ledger core.Ledger, logger core.Logger) []core.EventHandler {
	return []core.EventHandler{
		NewPaymentIntentHandler(ledger, logger),
		NewChargeHandler(ledger, logger),
		NewInvoiceHandler(ledger, logger),
		NewSubscriptionHandler(logger),
		NewCustomerHandler(logger),
	}
}

func decodePayload(event core.Event, target any) error {
	if len(event.Payload) == 0 {
		return handlerBadInput(
			fmt.Sprintf("handlers: event %s has no payload object", event.Type),
			map[string]any{"event_id": event.ID, "event_type": event.Type},
		)
	}
	if err := json.Unmarshal(event.Payload, target); err != nil {
		return handlerMalformed(
			fmt.Sprintf("handlers: decode %s payload", event.Type),
			err,
			map[string]any{"event_id": event.ID, "event_type": event.Type},
		)
	}
	return nil
}

func ensureLogger(logger core.Logger) core.Logger {
	if logger != nil {
		return logger
	}
	return glog.Nop()
}

func logEvent(ctx context.Context, logger core.Logger, message string, fields map[string]any) {
	logger = ensureLogger(logger)
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(core.FieldsLogger); ok {
		logger = fieldsLogger.WithFields(fields)
	}
	logger.Info(message, flattenFields(fields)...)
}

func warnEvent(ctx context.Context, logger core.Logger, message string, fields map[string]any) {
	logger = ensureLogger(logger)
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(core.FieldsLogger); ok {
		logger = fieldsLogger.WithFields(fields)
	}
	logger.Warn(message, flattenFields(fields)...)
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
