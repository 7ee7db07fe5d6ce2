package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/goliatone/go-payment-ingest/core"
)

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	listed, err := s.Ledger.ListOrders(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listed)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.Ledger.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	listed, err := s.Ledger.ListCustomers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listed)
}

func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := s.Ledger.GetCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

// handleUpdateOrderStatus takes the new status from the ?status= query
// parameter, falling back to a JSON body {"status": "..."}.
func (s *Server) handleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	if status == "" {
		var body struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			status = strings.TrimSpace(body.Status)
		}
	}
	if status == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: errorBody{Message: "status is required", TextCode: core.IngestErrorBadInput},
		})
		return
	}

	order, err := s.Ledger.UpdateOrderStatus(r.Context(), chi.URLParam(r, "id"), core.OrderStatus(status))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type createPendingOrderRequest struct {
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	Description     string `json:"description"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// handleCreatePendingOrder registers a pending order directly, minting a
// simulated intent id when the caller does not supply one. Demo surface for
// driving the reconciliation flow without a provider round trip.
func (s *Server) handleCreatePendingOrder(w http.ResponseWriter, r *http.Request) {
	var request createPendingOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: errorBody{Message: "malformed pending order request", TextCode: core.IngestErrorMalformedPayload},
		})
		return
	}
	paymentIntentID := strings.TrimSpace(request.PaymentIntentID)
	if paymentIntentID == "" {
		paymentIntentID = "pi_mock_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	}

	order, err := s.Ledger.CreatePendingOrder(r.Context(), core.PendingOrderInput{
		Amount:            request.Amount,
		Currency:          request.Currency,
		Description:       request.Description,
		ExternalPaymentID: paymentIntentID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) handleClearData(w http.ResponseWriter, r *http.Request) {
	if err := s.Ledger.Reset(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	s.logInfo(r.Context(), "ledger data cleared", nil)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "ledger data cleared and reinitialized",
		"status":  "success",
	})
}
