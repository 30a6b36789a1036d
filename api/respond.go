package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"backoffice/models"
)

// Every endpoint answers with the same envelope so clients can branch on
// one field: {"status":"success","data":...} or
// {"status":"error","message":...}.
type envelope struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(envelope{Status: "success", Data: data}); err != nil {
		log.Printf("[api] failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(envelope{Status: "error", Message: message}); err != nil {
		log.Printf("[api] failed to encode error response: %v", err)
	}
}

// writeServiceError maps the service error taxonomy onto HTTP codes. The
// sentinel stays distinguishable all the way up, so the mapping is a
// handful of errors.Is checks.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrInvalidTransition), errors.Is(err, models.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrStoreUnavailable):
		log.Printf("[api] store error: %v", err)
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
	default:
		log.Printf("[api] unexpected error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
