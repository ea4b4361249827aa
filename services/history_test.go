package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"cyberguard/models"
)

func TestHistoryClient(t *testing.T) {
	var lastMethod, lastPath, lastQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastMethod, lastPath, lastQuery = r.Method, r.URL.Path, r.URL.RawQuery
		switch {
		case r.URL.Path == "/history" && r.Method == http.MethodGet:
			w.Write([]byte(`{"history":[{"id":7,"analysis_type":"image","content_preview":"cat.png","risk_score":0.2,"is_favorite":1}]}`))
		case r.URL.Path == "/history/7" && r.Method == http.MethodGet:
			w.Write([]byte(`{"id":7,"analysis_type":"image","results":"{\"deepfake_risk\":\"low\"}"}`))
		case r.URL.Path == "/history/statistics":
			w.Write([]byte(`{"total_searches":3,"by_type":{"text":2,"image":1},"risk_distribution":{"low":1,"medium":1,"high":1},"recent_activity":2}`))
		case r.URL.Path == "/history/clear":
			w.Write([]byte(`{"deleted_count":4}`))
		case r.URL.Path == "/history/9":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":"Search not found"}`))
		default:
			w.Write([]byte(`{"success":true}`))
		}
	}))
	defer srv.Close()

	h := NewHistoryClient(NewClient(srv.URL))
	ctx := context.Background()

	entries, err := h.List(ctx, models.HistoryFilter{AnalysisType: "image", FavoritesOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ID != 7 || !bool(entries[0].IsFavorite) {
		t.Errorf("entries = %+v", entries)
	}
	if lastQuery != "analysis_type=image&favorites_only=true&limit=50" {
		t.Errorf("query = %q", lastQuery)
	}

	entry, err := h.Get(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if string(entry.Results) != `{"deepfake_risk":"low"}` || entry.Kind() != "image" {
		t.Errorf("entry = %+v", entry)
	}

	if err := h.ToggleFavorite(ctx, 7); err != nil || lastMethod != http.MethodPost || lastPath != "/history/7/favorite" {
		t.Errorf("favorite: %v %s %s", err, lastMethod, lastPath)
	}
	if err := h.Delete(ctx, 7); err != nil || lastMethod != http.MethodDelete {
		t.Errorf("delete: %v %s", err, lastMethod)
	}
	if n, err := h.Clear(ctx, 30); err != nil || n != 4 || lastQuery != "older_than_days=30" {
		t.Errorf("clear = %d, %v, query %q", n, err, lastQuery)
	}

	stats, err := h.Statistics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalSearches != 3 || stats.RiskDistribution.High != 1 || stats.ByType["text"] != 2 {
		t.Errorf("stats = %+v", stats)
	}

	if _, err := h.Get(ctx, 9); err == nil || err.Error() != "Search not found" {
		t.Errorf("missing entry err = %v", err)
	}
}
