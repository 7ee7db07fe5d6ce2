package server

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/goliatone/go-payment-ingest/core"
)

const maxWebhookBodyBytes = 1 << 20

// handleWebhook acknowledges verified deliveries with 200 and rejects
// everything else with 400. The provider only retries on non-2xx, so handler
// outcomes past verification never change the response.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s == nil || s.Ingest == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: errorBody{Message: "webhook intake is not configured", TextCode: core.IngestErrorInternal},
		})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		s.logWarn(r.Context(), "webhook body read failed", map[string]any{
			"error": err.Error(),
		})
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: errorBody{Message: "failed to read payload", TextCode: core.IngestErrorMalformedPayload},
		})
		return
	}

	request := core.InboundRequest{
		ProviderID: chi.URLParam(r, "provider"),
		Headers:    flattenHeaders(r.Header),
		Body:       body,
	}
	result, err := s.Ingest.Process(r.Context(), request)
	if err != nil {
		mapped := core.IngestErrorMapper(err)
		message := "failed to process delivery"
		textCode := core.IngestErrorBadInput
		if mapped != nil {
			message = mapped.Message
			textCode = mapped.TextCode
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: errorBody{Message: message, TextCode: textCode},
		})
		return
	}

	status := result.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	writeJSON(w, status, map[string]any{
		"received": true,
		"routed":   result.Metadata["routed"],
	})
}

func flattenHeaders(header http.Header) map[string]string {
	headers := make(map[string]string, len(header))
	for key, values := range header {
		if len(values) == 0 {
			continue
		}
		headers[key] = values[0]
	}
	return headers
}
