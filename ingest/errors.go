package ingest

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-payment-ingest/core"
)

func ingestError(message string, category goerrors.Category, status int, textCode string, metadata map[string]any) error {
	richErr := goerrors.New(message, category).
		WithCode(status).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		richErr = richErr.WithMetadata(metadata)
	}
	return richErr
}

func ingestBadInput(message string, metadata map[string]any) error {
	return ingestError(message, goerrors.CategoryBadInput, http.StatusBadRequest, core.IngestErrorBadInput, metadata)
}

func ingestConflict(message string, metadata map[string]any) error {
	return ingestError(message, goerrors.CategoryConflict, http.StatusConflict, core.IngestErrorConflict, metadata)
}

func ingestInternal(message string, metadata map[string]any) error {
	return ingestError(message, goerrors.CategoryInternal, http.StatusInternalServerError, core.IngestErrorInternal, metadata)
}
