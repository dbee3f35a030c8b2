// Package respond implements the portal's JSON response envelope. Callers
// special-case ErrorCode "horario_no_disponible" to re-fetch slots instead of
// treating the failure as an outage.
package respond

import (
	"encoding/json"
	"net/http"
)

// Error codes the portal frontend keys on.
const (
	CodeSlotUnavailable   = "horario_no_disponible"
	CodeValidation        = "validacion"
	CodeIllegalTransition = "transicion_ilegal"
	CodeUnauthorized      = "no_autorizado"
	CodeNotFound          = "no_encontrado"
	CodeInternal          = "interno"
)

// Envelope is the uniform response body.
type Envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`
	Message   string `json:"message,omitempty"`
}

// OK writes a success envelope.
func OK(w http.ResponseWriter, status int, data any) {
	write(w, status, Envelope{Success: true, Data: data})
}

// Fail writes a failure envelope with an error code the client can key on.
func Fail(w http.ResponseWriter, status int, code, message string) {
	write(w, status, Envelope{Success: false, ErrorCode: code, Message: message})
}

func write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
