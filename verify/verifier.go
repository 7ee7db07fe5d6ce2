package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-payment-ingest/core"
)

const defaultTolerance = 5 * time.Minute

// EventVerifier authenticates a raw webhook payload against the shared
// signing secret and parses it into a typed event envelope.
//
// When VerifySignature is false, or no secret is configured, the payload is
// trusted and only parsed. Parsing still fails closed on a malformed
// envelope.
type EventVerifier struct {
	Secret          string
	VerifySignature bool
	Tolerance       time.Duration
	Now             func() time.Time
	Logger          core.Logger
}

func New(cfg core.WebhookConfig) *EventVerifier {
	return &EventVerifier{
		Secret:          strings.TrimSpace(cfg.Secret),
		VerifySignature: cfg.VerifySignature,
		Tolerance:       cfg.Tolerance(),
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type eventEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

func (v *EventVerifier) Verify(ctx context.Context, payload []byte, header string) (core.Event, error) {
	if v == nil {
		return core.Event{}, verifyInternal("verify: verifier is nil", nil)
	}
	if len(payload) == 0 {
		return core.Event{}, verifyMalformed("verify: payload is required", nil, nil)
	}

	secret := strings.TrimSpace(v.Secret)
	if v.VerifySignature && secret != "" {
		if err := v.checkSignature(payload, header); err != nil {
			return core.Event{}, err
		}
	} else {
		v.logger().WithContext(ctx).Warn("webhook accepted without signature verification")
	}

	return parseEvent(payload)
}

func (v *EventVerifier) checkSignature(payload []byte, header string) error {
	// Diagnostic logs stay at the presence level only. The secret and the
	// signature values must never reach the log stream.
	parsed, err := parseSignatureHeader(header)
	if err != nil {
		return verifySignatureInvalid(err, map[string]any{
			"header_present": strings.TrimSpace(header) != "",
		})
	}

	now := v.now()
	drift := now.Sub(parsed.timestamp)
	if drift < 0 {
		drift = -drift
	}
	if drift > v.tolerance() {
		return verifySignatureInvalid(
			fmt.Errorf("verify: signature timestamp outside tolerance"),
			map[string]any{
				"drift_seconds":     int64(drift / time.Second),
				"tolerance_seconds": int64(v.tolerance() / time.Second),
			},
		)
	}

	expected := computeSignature(v.Secret, parsed.timestamp, payload)
	if !anyCandidateMatches(expected, parsed.candidates) {
		return verifySignatureInvalid(
			fmt.Errorf("verify: signature verification failed"),
			map[string]any{"candidates": len(parsed.candidates)},
		)
	}
	return nil
}

func parseEvent(payload []byte) (core.Event, error) {
	envelope := eventEnvelope{}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return core.Event{}, verifyMalformed("verify: parse event envelope", err, nil)
	}
	eventID := strings.TrimSpace(envelope.ID)
	eventType := strings.TrimSpace(envelope.Type)
	if eventID == "" || eventType == "" {
		return core.Event{}, verifyMalformed("verify: event id and type are required", nil, map[string]any{
			"has_id":   eventID != "",
			"has_type": eventType != "",
		})
	}
	object := envelope.Data.Object
	if len(object) == 0 || string(object) == "null" {
		return core.Event{}, verifyMalformed("verify: event data object is required", nil, map[string]any{
			"event_type": eventType,
		})
	}
	return core.Event{
		ID:      eventID,
		Type:    eventType,
		Payload: object,
	}, nil
}

func (v *EventVerifier) now() time.Time {
	if v != nil && v.Now != nil {
		return v.Now().UTC()
	}
	return time.Now().UTC()
}

func (v *EventVerifier) tolerance() time.Duration {
	if v != nil && v.Tolerance > 0 {
		return v.Tolerance
	}
	return defaultTolerance
}

func (v *EventVerifier) logger() core.Logger {
	if v != nil && v.Logger != nil {
		return v.Logger
	}
	return glog.Nop()
}
