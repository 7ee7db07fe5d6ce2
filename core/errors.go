package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	IngestErrorMalformedPayload = "INGEST_MALFORMED_PAYLOAD"
	IngestErrorSignatureInvalid = "INGEST_SIGNATURE_INVALID"
	IngestErrorBadInput         = "INGEST_BAD_INPUT"
	IngestErrorNotFound         = "INGEST_NOT_FOUND"
	IngestErrorConflict         = "INGEST_CONFLICT"
	IngestErrorInternal         = "INGEST_INTERNAL_ERROR"
)

// IngestErrorMapper normalizes any error into the service envelope so the
// transport layer can map it straight onto an HTTP status.
func IngestErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureIngestErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "signature"):
		return newIngestError(err.Error(), goerrors.CategoryAuth, IngestErrorSignatureInvalid)
	case strings.Contains(msg, "parse"), strings.Contains(msg, "malformed"):
		return newIngestError(err.Error(), goerrors.CategoryBadInput, IngestErrorMalformedPayload)
	case strings.Contains(msg, "not found"):
		return newIngestError(err.Error(), goerrors.CategoryNotFound, IngestErrorNotFound)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return newIngestError(err.Error(), goerrors.CategoryBadInput, IngestErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureIngestErrorEnvelope(mapped)
}

func newIngestError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureIngestErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureIngestErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = IngestHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultIngestTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultIngestTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return IngestErrorBadInput
	case goerrors.CategoryNotFound:
		return IngestErrorNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return IngestErrorSignatureInvalid
	case goerrors.CategoryConflict:
		return IngestErrorConflict
	default:
		return IngestErrorInternal
	}
}

func IngestHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
