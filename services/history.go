package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"cyberguard/models"
)

const defaultHistoryLimit = 50

// HistoryClient reads and edits the backend's search history.
type HistoryClient struct {
	c *Client
}

func NewHistoryClient(c *Client) *HistoryClient {
	return &HistoryClient{c: c}
}

func (h *HistoryClient) List(ctx context.Context, f models.HistoryFilter) ([]models.HistoryEntry, error) {
	q := url.Values{}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	q.Set("limit", strconv.Itoa(limit))
	if f.AnalysisType != "" {
		q.Set("analysis_type", f.AnalysisType)
	}
	if f.FavoritesOnly {
		q.Set("favorites_only", "true")
	}
	if f.MinRisk != nil {
		q.Set("min_risk", strconv.FormatFloat(*f.MinRisk, 'f', -1, 64))
	}
	if f.MaxRisk != nil {
		q.Set("max_risk", strconv.FormatFloat(*f.MaxRisk, 'f', -1, 64))
	}

	body, err := h.send(ctx, http.MethodGet, queryPath("/history", q), "history")
	if err != nil {
		return nil, err
	}
	return decodeHistoryList(body)
}

// decodeHistoryList accepts a bare array or an object with a "history" array.
func decodeHistoryList(body []byte) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	if err := json.Unmarshal(body, &entries); err == nil {
		return entries, nil
	}
	var wrapped struct {
		History []models.HistoryEntry `json:"history"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return wrapped.History, nil
}

func (h *HistoryClient) Get(ctx context.Context, id int64) (*models.HistoryEntry, error) {
	body, err := h.send(ctx, http.MethodGet, "/history/"+strconv.FormatInt(id, 10), "history")
	if err != nil {
		return nil, err
	}
	var entry models.HistoryEntry
	if err := json.Unmarshal(body, &entry); err != nil {
		return nil, fmt.Errorf("decode history entry: %w", err)
	}
	// Some stores keep results as an encoded JSON string.
	if len(entry.Results) > 0 && entry.Results[0] == '"' {
		var s string
		if json.Unmarshal(entry.Results, &s) == nil {
			entry.Results = json.RawMessage(s)
		}
	}
	return &entry, nil
}

func (h *HistoryClient) ToggleFavorite(ctx context.Context, id int64) error {
	_, err := h.send(ctx, http.MethodPost, "/history/"+strconv.FormatInt(id, 10)+"/favorite", "history")
	return err
}

func (h *HistoryClient) Delete(ctx context.Context, id int64) error {
	_, err := h.send(ctx, http.MethodDelete, "/history/"+strconv.FormatInt(id, 10), "history")
	return err
}

// Clear removes all entries, or only those older than olderThanDays when it is
// positive. It returns the backend's deleted count when reported.
func (h *HistoryClient) Clear(ctx context.Context, olderThanDays int) (int, error) {
	q := url.Values{}
	if olderThanDays > 0 {
		q.Set("older_than_days", strconv.Itoa(olderThanDays))
	}
	body, err := h.send(ctx, http.MethodPost, queryPath("/history/clear", q), "history")
	if err != nil {
		return 0, err
	}
	var resp struct {
		DeletedCount int `json:"deleted_count"`
	}
	_ = json.Unmarshal(body, &resp)
	log.Printf("[HISTORY] 🗑 Cleared %d entries", resp.DeletedCount)
	return resp.DeletedCount, nil
}

func (h *HistoryClient) Statistics(ctx context.Context) (*models.HistoryStatistics, error) {
	body, err := h.send(ctx, http.MethodGet, "/history/statistics", "history")
	if err != nil {
		return nil, err
	}
	var stats models.HistoryStatistics
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("decode statistics: %w", err)
	}
	return &stats, nil
}

func (h *HistoryClient) send(ctx context.Context, method, path, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, h.c.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return h.c.do(req, endpoint)
}
