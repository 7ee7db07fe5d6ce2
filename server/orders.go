package server

import (
	"encoding/json"
	"net/http"

	"github.com/goliatone/go-payment-ingest/core"
	"github.com/goliatone/go-payment-ingest/orders"
)

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	if s == nil || s.Orders == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: errorBody{Message: "order intent flow is not configured", TextCode: core.IngestErrorInternal},
		})
		return
	}

	var request orders.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: errorBody{Message: "malformed order request", TextCode: core.IngestErrorMalformedPayload},
		})
		return
	}

	response, err := s.Orders.CreateOrder(r.Context(), request)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logInfo(r.Context(), "order intent endpoint created order", map[string]any{
		"order_id":            response.OrderID,
		"external_payment_id": response.PaymentIntentID,
	})
	writeJSON(w, http.StatusCreated, response)
}

func (s *Server) handleOrderConfig(w http.ResponseWriter, _ *http.Request) {
	if s == nil || s.Orders == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: errorBody{Message: "order intent flow is not configured", TextCode: core.IngestErrorInternal},
		})
		return
	}
	writeJSON(w, http.StatusOK, s.Orders.Config())
}
