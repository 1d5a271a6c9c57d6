package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/vasiliy-maslov/pos-backoffice/internal/cashshift"
	"github.com/vasiliy-maslov/pos-backoffice/internal/order"
)

// CashShiftHandler handles HTTP requests for the cash drawer.
type CashShiftHandler struct {
	svc    cashshift.Service
	orders order.Service
}

func NewCashShiftHandler(svc cashshift.Service, orders order.Service) *CashShiftHandler {
	return &CashShiftHandler{svc: svc, orders: orders}
}

type openShiftRequest struct {
	StartAmount decimal.Decimal `json:"start_amount"`
}

func (h *CashShiftHandler) OpenShift(w http.ResponseWriter, r *http.Request) {
	var req openShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	shift, err := h.svc.Open(r.Context(), req.StartAmount)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, shift)
}

type closeShiftRequest struct {
	EndAmount             decimal.Decimal `json:"end_amount"`
	AcknowledgeDifference bool            `json:"acknowledge_difference"`
}

func (h *CashShiftHandler) CloseShift(w http.ResponseWriter, r *http.Request) {
	var req closeShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.svc.Close(r.Context(), req.EndAmount, req.AcknowledgeDifference)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	// A non-committed close is not an error: the summary comes back with 202 so
	// the operator can acknowledge the difference and retry.
	code := http.StatusOK
	if !result.Committed {
		code = http.StatusAccepted
	}
	respondWithJSON(w, code, result)
}

func (h *CashShiftHandler) GetCurrentShift(w http.ResponseWriter, r *http.Request) {
	shift, err := h.svc.Current(r.Context())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, shift)
}

func (h *CashShiftHandler) ListShiftOrders(w http.ResponseWriter, r *http.Request) {
	shiftID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid shift id")
		return
	}

	orders, err := h.orders.ListByShift(r.Context(), shiftID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, orders)
}
