package response

import (
	"encoding/json"
	"net/http"

	"garagewatch/pkg/apierror"
)

// Envelope wraps every successful payload. Outcome payloads carry their
// own result code inside data; the envelope only signals transport-level
// success.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// JSON sends a JSON envelope with the given status code.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(Envelope{Success: true, Data: data})
}

// OK sends a 200 OK envelope.
func OK(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, data)
}

// Error sends a structured error response. Errors that are not API errors
// are masked as a generic 500; their detail belongs in the process log,
// not on the wire.
func Error(w http.ResponseWriter, err error) {
	apiErr, ok := err.(*apierror.Error)
	if !ok {
		apiErr = apierror.InternalError("an unexpected error occurred")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.StatusCode)
	w.Write(apiErr.ToJSON())
}
