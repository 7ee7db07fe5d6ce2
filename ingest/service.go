package ingest

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-payment-ingest/core"
)

const DefaultSignatureHeader = "Stripe-Signature"

type Verifier interface {
	Verify(ctx context.Context, payload []byte, signatureHeader string) (core.Event, error)
}

// Service is the intake pipeline behind the webhook endpoint. Verification
// failures reject the delivery; everything past verification is acknowledged
// to the provider regardless of handler outcome, with the real result written
// to the journal and the log.
type Service struct {
	Verifier        Verifier
	Router          *Router
	Journal         core.DeliveryJournal
	Logger          core.Logger
	Provider        string
	SignatureHeader string
}

func NewService(verifier Verifier, router *Router) *Service {
	return &Service{
		Verifier:        verifier,
		Router:          router,
		Provider:        "stripe",
		SignatureHeader: DefaultSignatureHeader,
	}
}

func (s *Service) Process(ctx context.Context, req core.InboundRequest) (core.InboundResult, error) {
	if s == nil || s.Verifier == nil || s.Router == nil {
		return core.InboundResult{}, ingestInternal("ingest: service is not configured", nil)
	}
	req.ProviderID = strings.TrimSpace(req.ProviderID)
	if req.ProviderID == "" {
		return rejected(req), ingestBadInput("ingest: provider id is required", nil)
	}
	if provider := strings.TrimSpace(s.Provider); provider != "" && !strings.EqualFold(req.ProviderID, provider) {
		err := ingestBadInput(
			fmt.Sprintf("ingest: unsupported provider %q", req.ProviderID),
			map[string]any{"provider_id": req.ProviderID},
		)
		s.journal(ctx, core.JournalEntry{
			ProviderID: req.ProviderID,
			Status:     core.JournalStatusRejected,
			Error:      err.Error(),
		})
		return rejected(req), err
	}

	signatureHeader := core.HeaderValue(req.Headers, s.signatureHeaderName())
	event, err := s.Verifier.Verify(ctx, req.Body, signatureHeader)
	if err != nil {
		s.warn(ctx, "webhook delivery rejected", map[string]any{
			"provider_id": req.ProviderID,
			"error":       err.Error(),
		})
		s.journal(ctx, core.JournalEntry{
			ProviderID: req.ProviderID,
			Status:     core.JournalStatusRejected,
			Error:      err.Error(),
		})
		return rejected(req), err
	}

	handler := s.Router.Route(event)
	if handler == nil {
		s.info(ctx, "no handler for event type, delivery acknowledged", map[string]any{
			"provider_id": req.ProviderID,
			"event_id":    event.ID,
			"event_type":  event.Type,
		})
		s.journal(ctx, core.JournalEntry{
			ProviderID: req.ProviderID,
			EventID:    event.ID,
			EventType:  event.Type,
			Status:     core.JournalStatusHandlerMiss,
		})
		return acknowledged(req, event, false), nil
	}

	if err := handler.Handle(ctx, event); err != nil {
		// the provider has already been promised a 200 for verified
		// deliveries; the failure lives in the journal and the log
		s.warn(ctx, "handler execution failed, delivery still acknowledged", map[string]any{
			"provider_id": req.ProviderID,
			"event_id":    event.ID,
			"event_type":  event.Type,
			"error":       err.Error(),
		})
		s.journal(ctx, core.JournalEntry{
			ProviderID: req.ProviderID,
			EventID:    event.ID,
			EventType:  event.Type,
			Status:     core.JournalStatusHandlerFailed,
			Error:      err.Error(),
		})
		return acknowledged(req, event, true), nil
	}

	s.info(ctx, "webhook delivery processed", map[string]any{
		"provider_id": req.ProviderID,
		"event_id":    event.ID,
		"event_type":  event.Type,
	})
	s.journal(ctx, core.JournalEntry{
		ProviderID: req.ProviderID,
		EventID:    event.ID,
		EventType:  event.Type,
		Status:     core.JournalStatusProcessed,
	})
	return acknowledged(req, event, true), nil
}

func rejected(req core.InboundRequest) core.InboundResult {
	return core.InboundResult{
		Accepted:   false,
		StatusCode: http.StatusBadRequest,
		Metadata: map[string]any{
			"provider_id": req.ProviderID,
			"rejected":    true,
		},
	}
}

func acknowledged(req core.InboundRequest, event core.Event, routed bool) core.InboundResult {
	return core.InboundResult{
		Accepted:   true,
		StatusCode: http.StatusOK,
		Metadata: map[string]any{
			"provider_id": req.ProviderID,
			"event_id":    event.ID,
			"event_type":  event.Type,
			"routed":      routed,
		},
	}
}

func (s *Service) signatureHeaderName() string {
	if s != nil && strings.TrimSpace(s.SignatureHeader) != "" {
		return s.SignatureHeader
	}
	return DefaultSignatureHeader
}

func (s *Service) journal(ctx context.Context, entry core.JournalEntry) {
	if s == nil || s.Journal == nil {
		return
	}
	if err := s.Journal.Append(ctx, entry); err != nil {
		s.warn(ctx, "journal append failed", map[string]any{
			"provider_id": entry.ProviderID,
			"event_id":    entry.EventID,
			"status":      entry.Status,
			"error":       err.Error(),
		})
	}
}

func (s *Service) info(ctx context.Context, message string, fields map[string]any) {
	s.log(ctx, fields, func(logger core.Logger, args []any) { logger.Info(message, args...) })
}

func (s *Service) warn(ctx context.Context, message string, fields map[string]any) {
	s.log(ctx, fields, func(logger core.Logger, args []any) { logger.Warn(message, args...) })
}

func (s *Service) log(ctx context.Context, fields map[string]any, emit func(core.Logger, []any)) {
	logger := s.logger()
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(core.FieldsLogger); ok {
		logger = fieldsLogger.WithFields(fields)
	}
	emit(logger, flattenFields(fields))
}

func (s *Service) logger() core.Logger {
	if s != nil && s.Logger != nil {
		return s.Logger
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
