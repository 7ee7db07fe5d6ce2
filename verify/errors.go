package verify

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-payment-ingest/core"
)

func verifySignatureInvalid(source error, metadata map[string]any) error {
	err := goerrors.Wrap(source, goerrors.CategoryAuth, "verify: webhook signature rejected").
		WithCode(http.StatusBadRequest).
		WithTextCode(core.IngestErrorSignatureInvalid)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func verifyMalformed(message string, source error, metadata map[string]any) error {
	var err *goerrors.Error
	if source != nil {
		err = goerrors.Wrap(source, goerrors.CategoryBadInput, message)
	} else {
		err = goerrors.New(message, goerrors.CategoryBadInput)
	}
	err = err.
		WithCode(http.StatusBadRequest).
		WithTextCode(core.IngestErrorMalformedPayload)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func verifyInternal(message string, metadata map[string]any) error {
	err := goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(core.IngestErrorInternal)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}
