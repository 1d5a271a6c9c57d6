package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/pos-backoffice/internal/cashshift"
	"github.com/vasiliy-maslov/pos-backoffice/internal/catalog"
	"github.com/vasiliy-maslov/pos-backoffice/internal/order"
)

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("handler: failed to write JSON response")
	}
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, cashshift.ErrShiftNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrTerminalOrder),
		errors.Is(err, order.ErrNoOpenShift),
		errors.Is(err, cashshift.ErrShiftAlreadyOpen),
		errors.Is(err, cashshift.ErrNoOpenShift):
		return http.StatusConflict
	case errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrMissingAddress),
		errors.Is(err, order.ErrInvalidItem),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrInvalidField),
		errors.Is(err, cashshift.ErrInvalidAmount),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, catalog.ErrComboNotFound),
		errors.Is(err, catalog.ErrItemInactive):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondWithServiceError(w http.ResponseWriter, err error) {
	code := mapErrorToStatusCode(err)
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Msg("handler: unexpected service error")
		respondWithError(w, code, "internal server error")
		return
	}
	respondWithError(w, code, err.Error())
}
