package handlers

import (
	"log"
	"net/http"
	"strconv"

	"cyberguard/models"
	"cyberguard/services"
)

type historyPage struct {
	Notices []models.Notice
	Entries []models.HistoryEntry
	Stats   *models.HistoryStatistics
	Filter  models.HistoryFilter
	Kinds   []models.Kind
}

// HistoryPage handles GET /history: the history drawer. ?format=json returns the list.
func (v *Viewer) HistoryPage(w http.ResponseWriter, r *http.Request) {
	sess := v.session(w, r)
	q := r.URL.Query()
	filter := models.HistoryFilter{
		AnalysisType:  q.Get("analysis_type"),
		FavoritesOnly: q.Get("favorites_only") == "true",
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = n
	}

	entries, err := v.history.List(r.Context(), filter)
	if wantsJSON(r) {
		if err != nil {
			notice, _ := services.NoticeFor(r.Context(), err)
			writeJSON(w, statusFor(err), map[string]any{"notice": notice})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"history": entries})
		return
	}
	if err != nil {
		v.notify(sess, r, err)
	}
	stats, err := v.history.Statistics(r.Context())
	if err != nil {
		log.Printf("[HISTORY] ⚠ Statistics unavailable: %v", err)
	}

	page := historyPage{
		Notices: sess.DrainNotices(),
		Entries: entries,
		Stats:   stats,
		Filter:  filter,
		Kinds:   models.Kinds,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := historyTmpl.Execute(w, page); err != nil {
		log.Printf("[HISTORY] ❌ Render page: %v", err)
	}
}

// HistoryEntry handles GET /history/{id}: re-renders a stored result into the
// session's panel, like opening it from the drawer.
func (v *Viewer) HistoryEntry(w http.ResponseWriter, r *http.Request) {
	sess := v.session(w, r)
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	entry, err := v.history.Get(r.Context(), id)
	if err != nil {
		v.historyFailed(w, r, sess, err)
		return
	}
	view, err := v.renderer.Render(entry.Kind(), entry.Results)
	if err != nil {
		v.historyFailed(w, r, sess, err)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{"entry": entry, "view": view})
		return
	}
	sess.Publish(view, entry.Results)
	http.Redirect(w, r, "/#results", http.StatusSeeOther)
}

func (v *Viewer) HistoryFavorite(w http.ResponseWriter, r *http.Request) {
	sess := v.session(w, r)
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := v.history.ToggleFavorite(r.Context(), id); err != nil {
		v.historyFailed(w, r, sess, err)
		return
	}
	v.historyDone(w, r)
}

func (v *Viewer) HistoryDelete(w http.ResponseWriter, r *http.Request) {
	sess := v.session(w, r)
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := v.history.Delete(r.Context(), id); err != nil {
		v.historyFailed(w, r, sess, err)
		return
	}
	sess.Notify(models.Notice{Level: models.NoticeSuccess, Message: "Entry deleted"})
	v.historyDone(w, r)
}

func (v *Viewer) HistoryClear(w http.ResponseWriter, r *http.Request) {
	sess := v.session(w, r)
	days, _ := strconv.Atoi(r.FormValue("older_than_days"))
	n, err := v.history.Clear(r.Context(), days)
	if err != nil {
		v.historyFailed(w, r, sess, err)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]int{"deleted_count": n})
		return
	}
	sess.Notify(models.Notice{Level: models.NoticeSuccess, Message: "Cleared " + strconv.Itoa(n) + " entries"})
	http.Redirect(w, r, "/history", http.StatusSeeOther)
}

func (v *Viewer) HistoryStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := v.history.Statistics(r.Context())
	if err != nil {
		notice, _ := services.NoticeFor(r.Context(), err)
		writeJSON(w, statusFor(err), map[string]any{"notice": notice})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (v *Viewer) historyDone(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
		return
	}
	http.Redirect(w, r, "/history", http.StatusSeeOther)
}

func (v *Viewer) historyFailed(w http.ResponseWriter, r *http.Request, sess *services.Session, err error) {
	if wantsJSON(r) {
		notice, _ := services.NoticeFor(r.Context(), err)
		writeJSON(w, statusFor(err), map[string]any{"notice": notice})
		return
	}
	v.notify(sess, r, err)
	http.Redirect(w, r, "/history", http.StatusSeeOther)
}

func (v *Viewer) notify(sess *services.Session, r *http.Request, err error) {
	if notice, ok := services.NoticeFor(r.Context(), err); ok {
		sess.Notify(notice)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
