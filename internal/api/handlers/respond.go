package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"freiburg-transit/internal/transit"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// writeServiceError maps the service error types onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		validationErr *transit.ValidationError
		notFoundErr   *transit.NotFoundError
		upstreamErr   *transit.UpstreamError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		status = http.StatusNotFound
	case errors.As(err, &upstreamErr):
		status = http.StatusBadGateway
	}

	writeJSON(w, status, map[string]any{"error": err.Error()})
}
