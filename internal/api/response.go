package api

import (
	"encoding/json"
	"net/http"
)

// MessageResponse is the envelope for status-only results and for every
// error except multi-field validation failures.
type MessageResponse struct {
	Message string `json:"message"`
}

// ValidationErrorResponse carries one entry per failed field.
type ValidationErrorResponse struct {
	Errors []string `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Message: message})
}

func badRequest(w http.ResponseWriter, message string) {
	writeMessage(w, http.StatusBadRequest, message)
}

func validationFailed(w http.ResponseWriter, errs []string) {
	if len(errs) == 1 {
		badRequest(w, errs[0])
		return
	}
	writeJSON(w, http.StatusBadRequest, ValidationErrorResponse{Errors: errs})
}

func unauthorized(w http.ResponseWriter, message string) {
	writeMessage(w, http.StatusUnauthorized, message)
}

func forbidden(w http.ResponseWriter, message string) {
	writeMessage(w, http.StatusForbidden, message)
}

func notFound(w http.ResponseWriter, message string) {
	writeMessage(w, http.StatusNotFound, message)
}

func internalError(w http.ResponseWriter) {
	writeMessage(w, http.StatusInternalServerError, "An internal error occurred")
}
