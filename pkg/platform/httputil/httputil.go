// Package httputil holds the JSON response helpers shared by every handler.
//
// Failures are written as a soft-failure envelope:
//
//	{"success": false, "error": "<code>", "message": "<text>", "fields": {...}}
//
// Internal errors never leak their cause; the message is replaced with a
// generic one.
package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "complaintdesk/pkg/domain-errors"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

const genericFailureMessage = "the operation could not be completed, please try again later"

// Outcome is the envelope returned by lifecycle operations.
type Outcome struct {
	Success bool              `json:"success"`
	Error   string            `json:"error,omitempty"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Data    any               `json:"data,omitempty"`
}

// Validatable is implemented by request bodies that validate and normalize themselves.
type Validatable interface {
	Validate() error
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteOutcome writes a successful envelope carrying data.
func WriteOutcome(w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Outcome{Success: true, Message: message, Data: data})
}

// WriteError maps err to a status code and writes the soft-failure envelope.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	out := Outcome{
		Success: false,
		Error:   string(code),
		Message: dErrors.MessageOf(err),
		Fields:  dErrors.FieldsOf(err),
	}
	if code == dErrors.CodeInternal {
		out.Message = genericFailureMessage
		out.Fields = nil
	}
	WriteJSON(w, dErrors.HTTPStatus(code), out)
}

// DecodeAndPrepare decodes a JSON body into T and runs its Validate method.
// On failure the error response is already written and ok is false.
func DecodeAndPrepare[T any, PT interface {
	*T
	Validatable
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "failed to decode request body",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid json body"))
		return nil, false
	}
	if err := PT(&req).Validate(); err != nil {
		logger.WarnContext(ctx, "request validation failed",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, err)
		return nil, false
	}
	return &req, true
}
