// Package handlers contains HTTP request handlers
package handlers

import (
	"net/http"
	"time"
)

const (
	serviceName = "Freiburg Transit API (db.transport.rest)"
	version     = "1.0.0"
)

type HealthHandler struct {
	startTime time.Time
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{startTime: time.Now()}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": version,
		"uptime":  time.Since(h.startTime).String(),
	})
}
