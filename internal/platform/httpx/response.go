package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope carries extra top-level fields next to status and message.
type Envelope map[string]any

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Success writes {"status":"success"} plus message (when set) and fields.
func Success(w http.ResponseWriter, message string, fields Envelope) {
	body := Envelope{"status": "success"}
	if message != "" {
		body["message"] = message
	}
	for k, v := range fields {
		body[k] = v
	}
	JSON(w, http.StatusOK, body)
}

// Fail writes {"status":"error","message":...} with the given status code.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{"status": "error", "message": message})
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	if r.Body == nil {
		return Errorf(ErrValidation, "Cuerpo de la solicitud vacío")
	}
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return Errorf(ErrValidation, "JSON inválido")
	}
	return nil
}
