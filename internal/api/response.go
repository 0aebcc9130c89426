package api

import (
	"encoding/json"
	"errors"
	"net/http"

	crackerr "github.com/amterp/crack/internal/errors"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error    string `json:"error"`
	Code     string `json:"code"`
	Refunded bool   `json:"refunded,omitempty"`
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Error writes an error response, mapping domain errors to HTTP status codes.
func Error(w http.ResponseWriter, err error) {
	status, code := classify(err)
	resp := ErrorResponse{Error: err.Error(), Code: code}

	var failed *crackerr.PackOpeningFailedError
	if errors.As(err, &failed) {
		resp.Refunded = failed.Refunded
	}
	JSON(w, status, resp)
}

func classify(err error) (int, string) {
	switch {
	// Checked first: its cause may itself be a typed error.
	case errors.Is(err, crackerr.ErrPackUnobtainable):
		return http.StatusBadGateway, "pack_opening_failed"
	case errors.Is(err, crackerr.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, crackerr.ErrNotInitialized):
		return http.StatusNotFound, "not_initialized"
	case errors.Is(err, crackerr.ErrInvalidInput):
		return http.StatusBadRequest, "invalid"
	case errors.Is(err, crackerr.ErrNoPacks):
		return http.StatusConflict, "no_packs"
	case errors.Is(err, crackerr.ErrInsufficientFunds):
		return http.StatusConflict, "insufficient_funds"
	case errors.Is(err, crackerr.ErrCooldown):
		return http.StatusConflict, "cooldown"
	case errors.Is(err, crackerr.ErrBusy):
		return http.StatusConflict, "busy"
	case errors.Is(err, crackerr.ErrCollectionFull):
		return http.StatusConflict, "collection_full"
	}
	return http.StatusInternalServerError, "internal"
}

// BadRequest writes a 400 error with the given message.
func BadRequest(w http.ResponseWriter, message string) {
	JSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Code: "invalid"})
}
