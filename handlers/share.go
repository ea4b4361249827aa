package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"cyberguard/models"
	"cyberguard/services"
)

type sharePage struct {
	View      *models.View
	ExpiresAt time.Time
}

// Export handles GET /export: downloads the session's current result as JSON.
func (v *Viewer) Export(w http.ResponseWriter, r *http.Request) {
	sess := v.session(w, r)
	p := sess.Panel()
	if p == nil {
		writeError(w, http.StatusNotFound, "no result to export")
		return
	}
	now := time.Now()
	w.Header().Set("Content-Disposition", `attachment; filename="`+services.ExportFilename(now)+`"`)
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(services.BuildExport(p.View, p.Raw, now)); err != nil {
		log.Printf("[VIEWER] ⚠ Export encode: %v", err)
	}
}

// ShareCurrent handles POST /share: stores the session's current result and
// redirects to its public page.
func (v *Viewer) ShareCurrent(w http.ResponseWriter, r *http.Request) {
	sess := v.session(w, r)
	p := sess.Panel()
	if p == nil {
		sess.Notify(models.Notice{Level: models.NoticeWarning, Message: "Nothing to share yet"})
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	rep, err := v.shares.Create(r.Context(), p.View.Kind, p.Raw)
	if err != nil {
		log.Printf("[SHARE] ❌ Create failed: %v", err)
		sess.Notify(models.Notice{Level: models.NoticeError, Message: "Could not create a share link"})
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/s/"+rep.ID, http.StatusSeeOther)
}

type shareRequest struct {
	Kind    models.Kind     `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// CreateShare handles POST /api/share {"kind":…,"payload":…} → {"id":…,"url":…}.
// Used by the Telegram bot and other front ends.
func (v *Viewer) CreateShare(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if !v.shares.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "sharing unavailable")
		return
	}

	var req shareRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 4<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if _, ok := models.ParseKind(string(req.Kind)); !ok {
		writeError(w, http.StatusBadRequest, "unknown kind")
		return
	}

	rep, err := v.shares.Create(r.Context(), req.Kind, req.Payload)
	switch {
	case errors.Is(err, services.ErrMalformedPayload):
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	case err != nil:
		log.Printf("[SHARE] ❌ Create failed: %v", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": rep.ID, "url": v.shareURL(rep.ID)})
}

// GetShare handles GET /api/share/{id}: the shared result, re-rendered.
func (v *Viewer) GetShare(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	rep, view, ok := v.loadShare(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":         rep.ID,
		"kind":       rep.Kind,
		"expires_at": rep.ExpiresAt,
		"view":       view,
		"payload":    rep.Payload,
	})
}

// ShowShare handles GET /s/{id}: public HTML page for a shared result.
func (v *Viewer) ShowShare(w http.ResponseWriter, r *http.Request) {
	rep, view, ok := v.loadShare(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := shareTmpl.Execute(w, sharePage{View: view, ExpiresAt: rep.ExpiresAt}); err != nil {
		log.Printf("[SHARE] ❌ Render page: %v", err)
	}
}

func (v *Viewer) loadShare(w http.ResponseWriter, r *http.Request) (*services.SharedReport, *models.View, bool) {
	rep, err := v.shares.Get(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, services.ErrShareNotFound), errors.Is(err, services.ErrSharingDisabled):
		writeError(w, http.StatusNotFound, "not found or expired")
		return nil, nil, false
	case err != nil:
		log.Printf("[SHARE] ❌ Load failed: %v", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return nil, nil, false
	}
	view, err := v.renderer.Render(rep.Kind, rep.Payload)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "stored payload unreadable")
		return nil, nil, false
	}
	return rep, view, true
}

func (v *Viewer) shareURL(id string) string {
	return strings.TrimRight(v.cfg.PublicBaseURL, "/") + "/s/" + id
}
