package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/datawisp/metadata-engine/pkg/apperrors"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// WriteError maps the engine error taxonomy onto HTTP status codes.
func WriteError(w http.ResponseWriter, err error) error {
	kind := apperrors.KindOf(err)
	status := http.StatusInternalServerError
	code := "internal_error"

	switch kind {
	case apperrors.KindNotFound:
		status, code = http.StatusNotFound, "not_found"
	case apperrors.KindConfigurationError:
		status, code = http.StatusBadRequest, "configuration_error"
	case apperrors.KindGenerationFailure:
		status, code = http.StatusBadGateway, "generation_failure"
	case apperrors.KindPartialPersistence:
		status, code = http.StatusBadGateway, "partial_persistence"
	}
	return ErrorResponse(w, status, code, err.Error())
}
