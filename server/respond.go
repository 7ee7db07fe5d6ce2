package server

import (
	"encoding/json"
	"net/http"

	"github.com/goliatone/go-payment-ingest/core"
)

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Message  string `json:"message"`
	TextCode string `json:"textCode,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	mapped := core.IngestErrorMapper(err)
	if mapped == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: errorBody{Message: "An unexpected error occurred", TextCode: core.IngestErrorInternal},
		})
		return
	}
	writeJSON(w, mapped.Code, errorResponse{
		Error: errorBody{Message: mapped.Message, TextCode: mapped.TextCode},
	})
}
