package services

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"cyberguard/models"
)

func TestBuildExport(t *testing.T) {
	raw := json.RawMessage(`{"misinformation_score":0.85,"analysis":{"gemini_analysis":{"status":"success","fake_news_verdict":"FAKE NEWS","analysis":"one\ntwo"}},"recommendations":["Verify"]}`)
	view, err := NewRenderer(DefaultThresholds, nil).Render(models.KindText, raw)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	exp := BuildExport(view, raw, now)

	if exp.RiskAssessment != "High Risk" {
		t.Errorf("RiskAssessment = %q", exp.RiskAssessment)
	}
	if !strings.Contains(exp.Analysis, "Detailed Analysis: one\ntwo") {
		t.Errorf("Analysis = %q", exp.Analysis)
	}
	if len(exp.Recommendations) != 1 || exp.Recommendations[0] != "Verify" {
		t.Errorf("Recommendations = %v", exp.Recommendations)
	}
	if got := ExportFilename(now); got != "misinformation-analysis-1772359200000.json" {
		t.Errorf("ExportFilename = %q", got)
	}
}

func TestStatusLabel(t *testing.T) {
	if got := StatusLabel(&models.Status{}, nil); got != "✅ API Ready" {
		t.Errorf("ok = %q", got)
	}
	if got := StatusLabel(nil, &APIError{Status: 503}); got != "⚠️ API Connection Issues" {
		t.Errorf("api error = %q", got)
	}
	if got := StatusLabel(nil, errors.New("refused")); got != "❌ API Unavailable" {
		t.Errorf("network = %q", got)
	}
}
