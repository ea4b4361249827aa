package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"cyberguard/config"
	"cyberguard/models"
	"cyberguard/services"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const sessionCookie = "cg_session"

// Viewer serves the submission page, the rendered result panel and the
// supporting endpoints around it.
type Viewer struct {
	cfg       *config.Config
	client    *services.Client
	history   *services.HistoryClient
	renderer  *services.Renderer
	submitter *services.Submitter
	sessions  *services.SessionStore
	shares    *services.ShareStore
	metrics   *services.Metrics
}

type ViewerDeps struct {
	Config    *config.Config
	Client    *services.Client
	Renderer  *services.Renderer
	Submitter *services.Submitter
	Sessions  *services.SessionStore
	Shares    *services.ShareStore
	Metrics   *services.Metrics
}

func NewViewer(d ViewerDeps) *Viewer {
	return &Viewer{
		cfg:       d.Config,
		client:    d.Client,
		history:   services.NewHistoryClient(d.Client),
		renderer:  d.Renderer,
		submitter: d.Submitter,
		sessions:  d.Sessions,
		shares:    d.Shares,
		metrics:   d.Metrics,
	}
}

// Routes registers every viewer endpoint on a fresh mux.
func (v *Viewer) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", v.Index)
	mux.HandleFunc("POST /analyze/{kind}", v.Analyze)
	mux.HandleFunc("POST /api/render/{kind}", v.RenderPayload)

	mux.HandleFunc("GET /api/status", v.Status)
	mux.HandleFunc("GET /api/limits", v.Limits)
	mux.HandleFunc("GET /api/health", v.Health)

	mux.HandleFunc("GET /export", v.Export)
	mux.HandleFunc("POST /share", v.ShareCurrent)
	mux.HandleFunc("POST /api/share", v.CreateShare)
	mux.HandleFunc("OPTIONS /api/share", v.CreateShare)
	mux.HandleFunc("GET /s/{id}", v.ShowShare)
	mux.HandleFunc("GET /api/share/{id}", v.GetShare)

	mux.HandleFunc("GET /history", v.HistoryPage)
	mux.HandleFunc("GET /history/statistics", v.HistoryStatistics)
	mux.HandleFunc("GET /history/{id}", v.HistoryEntry)
	mux.HandleFunc("POST /history/{id}/favorite", v.HistoryFavorite)
	mux.HandleFunc("POST /history/{id}/delete", v.HistoryDelete)
	mux.HandleFunc("POST /history/clear", v.HistoryClear)

	mux.HandleFunc("GET /ws/logs", v.StreamLogs)
	if v.metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(v.metrics.Registry, promhttp.HandlerOpts{}))
	}
	return mux
}

type indexPage struct {
	StatusLabel  string
	Notices      []models.Notice
	Busy         map[string]bool
	View         *models.View
	ShareEnabled bool
	MaxImage     int64
	MaxVideo     int64
}

func (v *Viewer) Index(w http.ResponseWriter, r *http.Request) {
	sess := v.session(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	st, err := v.client.Status(ctx)
	cancel()

	page := indexPage{
		StatusLabel:  services.StatusLabel(st, err),
		Notices:      sess.DrainNotices(),
		Busy:         map[string]bool{},
		ShareEnabled: v.shares.Enabled(),
		MaxImage:     services.MaxImageBytes,
		MaxVideo:     services.MaxVideoBytes,
	}
	for _, k := range models.Kinds {
		page.Busy[string(k)] = v.submitter.Busy(sess.ID, k)
	}
	if p := sess.Panel(); p != nil {
		page.View = p.View
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, page); err != nil {
		log.Printf("[VIEWER] ❌ Render index: %v", err)
	}
}

// session returns the caller's session, issuing a cookie for new ones.
func (v *Viewer) session(w http.ResponseWriter, r *http.Request) *services.Session {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}
	sess, created := v.sessions.GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[VIEWER] ⚠ Encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func wantsJSON(r *http.Request) bool {
	return r.URL.Query().Get("format") == "json"
}
