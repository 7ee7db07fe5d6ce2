package orders

import (
	"net/http"
	"sort"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-payment-ingest/core"
)

func ordersBadInput(message string, metadata map[string]any) error {
	richErr := goerrors.New(message, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.IngestErrorBadInput)
	if len(metadata) > 0 {
		richErr = richErr.WithMetadata(metadata)
	}
	return richErr
}

func ordersInternal(message string, metadata map[string]any) error {
	richErr := goerrors.New(message, goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(core.IngestErrorInternal)
	if len(metadata) > 0 {
		richErr = richErr.WithMetadata(metadata)
	}
	return richErr
}

func ordersWrap(source error, message string, metadata map[string]any) error {
	richErr := goerrors.Wrap(source, goerrors.CategoryOperation, message).
		WithCode(http.StatusInternalServerError).
		WithTextCode(core.IngestErrorInternal)
	if len(metadata) > 0 {
		richErr = richErr.WithMetadata(metadata)
	}
	return richErr
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
