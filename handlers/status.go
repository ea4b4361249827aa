package handlers

import (
	"context"
	"net/http"
	"time"

	"cyberguard/services"
)

// Status handles GET /api/status: backend capability flags plus the indicator label.
func (v *Viewer) Status(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	st, err := v.client.Status(ctx)
	label := services.StatusLabel(st, err)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]any{"label": label, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"label":          label,
		"status":         st,
		"news_available": st.NewsAvailable(),
	})
}

// Limits handles GET /api/limits: last rate-limit headers seen per backend endpoint.
func (v *Viewer) Limits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, v.client.Limits.Snapshot())
}

func (v *Viewer) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": v.sessions.Len(),
		"sharing":  v.shares.Enabled(),
	})
}
