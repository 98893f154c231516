package api

import (
	"net/http"

	"carmarket/internal/db"
)

type HealthHandler struct {
	database *db.DB
}

func NewHealthHandler(database *db.DB) *HealthHandler {
	return &HealthHandler{database: database}
}

// Check reports liveness. The database ping is the only dependency worth
// probing; SMTP failures surface per-request instead.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if err := h.database.Ping(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "unavailable",
			"database": "error",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
