package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mesh-intelligence/bodega/pkg/types"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// statusFor maps an error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrUnauthorized), errors.Is(err, types.ErrSessionClosed):
		return http.StatusUnauthorized
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrAlreadyLoaned), errors.Is(err, types.ErrNotLoaned),
		errors.Is(err, types.ErrInsufficientStock), errors.Is(err, types.ErrToolOnLoan),
		errors.Is(err, types.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, types.ErrInvalidQuantity), errors.Is(err, types.ErrInvalidCondition),
		errors.Is(err, types.ErrInvalidName), errors.Is(err, types.ErrUnknownTable):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrStore):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError writes err with the status its kind maps to. Unclassified
// errors are logged and hidden from the client.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		jsonError(w, status, "internal error")
		return
	}
	jsonError(w, status, err.Error())
}

// movementResponse is the body of a transaction response. A movement that
// was recorded but not persisted comes back with Error set and a 502.
type movementResponse struct {
	Movement any    `json:"movement,omitempty"`
	Error    string `json:"error,omitempty"`
}

func writeMovement(w http.ResponseWriter, m any, err error) {
	if err != nil && !errors.Is(err, types.ErrStore) {
		writeError(w, err)
		return
	}
	if err != nil {
		jsonResponse(w, http.StatusBadGateway, movementResponse{Movement: m, Error: err.Error()})
		return
	}
	jsonResponse(w, http.StatusCreated, movementResponse{Movement: m})
}
