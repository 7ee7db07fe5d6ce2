package handlers

import (
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-payment-ingest/core"
)

func isNotFound(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryNotFound
}

func handlerBadInput(message string, metadata map[string]any) error {
	richErr := goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(400).
		WithTextCode(core.IngestErrorBadInput)
	if len(metadata) > 0 {
		richErr = richErr.WithMetadata(metadata)
	}
	return richErr
}

func handlerMalformed(message string, source error, metadata map[string]any) error {
	richErr := goerrors.Wrap(source, goerrors.CategoryBadInput, message).
		WithCode(400).
		WithTextCode(core.IngestErrorMalformedPayload)
	if len(metadata) > 0 {
		richErr = richErr.WithMetadata(metadata)
	}
	return richErr
}
