package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/splitrix/splitrix/internal/ledger"
)

// errorResponse is the JSON body for all failures.
type errorResponse struct {
	Error string `json:"error"`
}

// statusFromError maps ledger error kinds to HTTP status codes. Callers must
// be able to distinguish failures by kind, so the rule violation is carried
// in the response body verbatim.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, ledger.ErrGroupNotFound),
		errors.Is(err, ledger.ErrBillNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrZeroAddress),
		errors.Is(err, ledger.ErrTooFewMembers),
		errors.Is(err, ledger.ErrZeroAmount),
		errors.Is(err, ledger.ErrNoDebtors),
		errors.Is(err, ledger.ErrEmptyMemo),
		errors.Is(err, ledger.ErrTotalMismatch),
		errors.Is(err, ledger.ErrIndexOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrPayerMismatch),
		errors.Is(err, ledger.ErrPayeeMismatch),
		errors.Is(err, ledger.ErrSenderMismatch):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrAlreadySettled):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrNettingOverflow):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeLedgerError(w http.ResponseWriter, err error) {
	writeError(w, statusFromError(err), err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
