package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// HistoryEntry is one row of the remote search history.
type HistoryEntry struct {
	ID             int64           `json:"id"`
	AnalysisType   string          `json:"analysis_type"`
	ContentPreview string          `json:"content_preview"`
	FileName       string          `json:"file_name,omitempty"`
	FileSize       int64           `json:"file_size,omitempty"`
	RiskScore      float64         `json:"risk_score"`
	Confidence     float64         `json:"confidence"`
	Verdict        string          `json:"verdict,omitempty"`
	Timestamp      string          `json:"timestamp"`
	UserNotes      string          `json:"user_notes,omitempty"`
	IsFavorite     FlexBool        `json:"is_favorite"`
	Results        json.RawMessage `json:"results,omitempty"`
}

// Kind returns the entry's analysis kind, defaulting to text.
func (e *HistoryEntry) Kind() Kind {
	if k, ok := ParseKind(e.AnalysisType); ok {
		return k
	}
	return KindText
}

// FlexBool accepts true/false as well as the 0/1 integers some stores emit.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null", `""`:
		*b = false
		return nil
	case "true", `"true"`:
		*b = true
		return nil
	case "false", `"false"`:
		*b = false
		return nil
	}
	n, err := strconv.ParseFloat(string(bytes.Trim(data, `"`)), 64)
	if err != nil {
		return err
	}
	*b = n != 0
	return nil
}

type HistoryFilter struct {
	Limit         int
	AnalysisType  string
	FavoritesOnly bool
	MinRisk       *float64
	MaxRisk       *float64
}

type RiskDistribution struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

type HistoryStatistics struct {
	TotalSearches    int              `json:"total_searches"`
	ByType           map[string]int   `json:"by_type"`
	RiskDistribution RiskDistribution `json:"risk_distribution"`
	RecentActivity   int              `json:"recent_activity"`
}
