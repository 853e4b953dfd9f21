// Package httpapi implements the HTTP surface (§6) as thin net/http
// handlers: decode JSON, call the Dispatch/Matrix facades or the benchmark
// index, encode JSON. No business logic lives here.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/vrprouting/vrp-service/pkg/apperror"
	"github.com/vrprouting/vrp-service/pkg/logger"
)

// envelope is the one response shape used across the surface: status plus an
// optional message, typed payload, or error detail.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("httpapi: failed to encode response", "error", err)
	}
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Status: "ok", Data: data})
}

func writeError(w http.ResponseWriter, err error) {
	ae := apperror.AsAppError(err)
	body := envelope{Status: "error", Message: ae.Message}
	if ae.Field != "" {
		body.Detail = ae.Field
	} else if ae.Cause != nil {
		body.Detail = ae.Cause.Error()
	}
	writeJSON(w, ae.HTTPStatus(), body)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperror.Wrap(err, apperror.CodeInputInvalid, "invalid request body: "+err.Error())
	}
	return nil
}
