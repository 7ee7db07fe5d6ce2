package verify

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// The provider signs webhook deliveries with a header of the form
// `t=<unix>,v1=<hex>[,v1=<hex>...]`. The signed payload is the timestamp and
// the raw body joined with a dot; any v1 candidate may match.
const (
	signatureTimestampKey = "t"
	signatureSchemeKey    = "v1"
)

type signatureHeader struct {
	timestamp  time.Time
	candidates [][]byte
}

func parseSignatureHeader(header string) (signatureHeader, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return signatureHeader{}, fmt.Errorf("verify: signature header is required")
	}

	parsed := signatureHeader{}
	sawTimestamp := false
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			return signatureHeader{}, fmt.Errorf("verify: malformed signature header element")
		}
		switch strings.TrimSpace(key) {
		case signatureTimestampKey:
			seconds, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
			if err != nil {
				return signatureHeader{}, fmt.Errorf("verify: parse signature timestamp: %w", err)
			}
			parsed.timestamp = time.Unix(seconds, 0).UTC()
			sawTimestamp = true
		case signatureSchemeKey:
			decoded, err := hex.DecodeString(strings.TrimSpace(value))
			if err != nil {
				return signatureHeader{}, fmt.Errorf("verify: decode hex signature: %w", err)
			}
			parsed.candidates = append(parsed.candidates, decoded)
		default:
			// Unknown schemes (v0 etc.) are ignored, matching provider docs.
		}
	}
	if !sawTimestamp {
		return signatureHeader{}, fmt.Errorf("verify: signature timestamp is required")
	}
	if len(parsed.candidates) == 0 {
		return signatureHeader{}, fmt.Errorf("verify: signature value is required")
	}
	return parsed, nil
}

func computeSignature(secret string, timestamp time.Time, payload []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(strconv.FormatInt(timestamp.Unix(), 10)))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write(payload)
	return mac.Sum(nil)
}

func anyCandidateMatches(expected []byte, candidates [][]byte) bool {
	matched := false
	for _, candidate := range candidates {
		if subtle.ConstantTimeCompare(candidate, expected) == 1 {
			matched = true
		}
	}
	return matched
}

// SignHeader computes a full signature header for a payload. Used by tests
// and local tooling to produce deliveries the verifier accepts.
func SignHeader(secret string, timestamp time.Time, payload []byte) string {
	signature := computeSignature(secret, timestamp, payload)
	return fmt.Sprintf("%s=%d,%s=%s",
		signatureTimestampKey, timestamp.Unix(),
		signatureSchemeKey, hex.EncodeToString(signature),
	)
}
