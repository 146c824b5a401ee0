package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"invest-ledger-go/internal/ledger"
	"invest-ledger-go/internal/store"

	"go.uber.org/zap"
)

const genericErrorMessage = "An error occurred"

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("Failed to encode response", zap.Error(err))
	}
}

// writeResult sends a result whose Success flag decides between 200 (or
// created) and 422.
func writeResult(w http.ResponseWriter, success bool, created bool, body any) {
	switch {
	case !success:
		writeJSON(w, http.StatusUnprocessableEntity, body)
	case created:
		writeJSON(w, http.StatusCreated, body)
	default:
		writeJSON(w, http.StatusOK, body)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Success: false, Error: message})
}

// writeError maps err onto a status code. Unknown errors are logged and
// reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if rej, ok := ledger.AsRejection(err); ok {
		writeMessage(w, http.StatusUnprocessableEntity, rej.Message)
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		zap.L().Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeMessage(w, status, genericErrorMessage)
		return
	}
	writeMessage(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrAccountNotFound),
		errors.Is(err, store.ErrEntryNotFound),
		errors.Is(err, store.ErrPlanNotFound),
		errors.Is(err, store.ErrPositionNotFound),
		errors.Is(err, store.ErrExpertNotFound),
		errors.Is(err, store.ErrProviderNotFound),
		errors.Is(err, store.ErrAddressNotFound),
		errors.Is(err, store.ErrNotificationNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicateAccount),
		errors.Is(err, store.ErrDuplicateName),
		errors.Is(err, store.ErrInvalidTransition),
		errors.Is(err, store.ErrPlanInUse),
		errors.Is(err, store.ErrConcurrentModification):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}
