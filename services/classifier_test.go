package services

import (
	"math"
	"testing"

	"cyberguard/models"

	"github.com/tidwall/gjson"
)

func TestClassifyRisk_Boundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  models.RiskLevel
		class string
	}{
		{0, models.RiskLow, "risk-low"},
		{0.29, models.RiskLow, "risk-low"},
		{0.3, models.RiskModerate, "risk-moderate"},
		{0.5, models.RiskModerate, "risk-moderate"},
		{0.69, models.RiskModerate, "risk-moderate"},
		{0.7, models.RiskHigh, "risk-high"},
		{1, models.RiskHigh, "risk-high"},
		{-0.4, models.RiskLow, "risk-low"},
		{3, models.RiskHigh, "risk-high"},
		{math.NaN(), models.RiskLow, "risk-low"},
	}
	for _, tt := range tests {
		got := ClassifyRisk(tt.score)
		if got.Level != tt.want || got.StyleClass != tt.class {
			t.Errorf("ClassifyRisk(%v) = %s/%s, want %s/%s", tt.score, got.Level, got.StyleClass, tt.want, tt.class)
		}
		if got.NormalizedScore < 0 || got.NormalizedScore > 1 {
			t.Errorf("ClassifyRisk(%v) normalized score %v out of range", tt.score, got.NormalizedScore)
		}
	}
}

func TestClassifyRisk_Monotonic(t *testing.T) {
	prev := 0
	for i := 0; i <= 1000; i++ {
		rank := ClassifyRisk(float64(i) / 1000).Level.Rank()
		if rank < prev {
			t.Fatalf("rank decreased at score %v", float64(i)/1000)
		}
		prev = rank
	}
}

func TestClassifyRisk_Percent(t *testing.T) {
	got := ClassifyRisk(0.8537)
	if got.Percent != 85.4 {
		t.Errorf("Percent = %v, want 85.4", got.Percent)
	}
	if got.DisplayLabel != "High Risk" {
		t.Errorf("DisplayLabel = %q", got.DisplayLabel)
	}
}

func TestThresholds_Custom(t *testing.T) {
	th := Thresholds{Low: 0.5, High: 0.9}
	if got := th.ClassifyRisk(0.85).Level; got != models.RiskModerate {
		t.Errorf("0.85 with {0.5,0.9} = %s, want Moderate", got)
	}
	if got := th.ClassifyRisk(0.4).Level; got != models.RiskLow {
		t.Errorf("0.4 with {0.5,0.9} = %s, want Low", got)
	}
}

func TestClassifyQualitativeRisk(t *testing.T) {
	tests := []struct {
		label       string
		want        models.RiskLevel
		score       float64
		placeholder bool
	}{
		{"low", models.RiskLow, 0.2, false},
		{"LOW", models.RiskLow, 0.2, false},
		{" medium ", models.RiskModerate, 0.5, false},
		{"Moderate", models.RiskModerate, 0.5, false},
		{"HIGH", models.RiskHigh, 0.8, false},
		{"unknown", models.RiskUnknown, 0.5, true},
		{"", models.RiskUnknown, 0.5, true},
		{"catastrophic", models.RiskUnknown, 0.5, true},
	}
	for _, tt := range tests {
		got := ClassifyQualitativeRisk(tt.label)
		if got.Level != tt.want || got.NormalizedScore != tt.score || got.Placeholder != tt.placeholder {
			t.Errorf("ClassifyQualitativeRisk(%q) = %+v", tt.label, got)
		}
	}
	if got := ClassifyQualitativeRisk("???"); got.DisplayLabel != "Unknown" || got.StyleClass != "risk-unknown" {
		t.Errorf("unknown label styling = %s/%s", got.DisplayLabel, got.StyleClass)
	}
}

func TestRiskFromPayload(t *testing.T) {
	tests := []struct {
		name    string
		kind    models.Kind
		payload string
		want    models.RiskLevel
		score   float64
	}{
		{"text score", models.KindText, `{"misinformation_score":0.85}`, models.RiskHigh, 0.85},
		{"text missing score", models.KindText, `{}`, models.RiskLow, 0},
		{"image qualitative", models.KindImage, `{"deepfake_risk":"low","status":"basic_analysis"}`, models.RiskLow, 0.2},
		{"image label wins over score", models.KindImage, `{"deepfake_risk":"low","deepfake_score":0.75}`, models.RiskLow, 0.2},
		{"image numeric without label", models.KindImage, `{"deepfake_score":0.75}`, models.RiskHigh, 0.75},
		{"image error placeholder", models.KindImage, `{"error":"Could not load image","deepfake_risk":"unknown","deepfake_score":0.5,"confidence":0.1}`, models.RiskUnknown, 0.5},
		{"video overall first", models.KindVideo, `{"overall_deepfake_risk":"HIGH","deepfake_risk":"low"}`, models.RiskHigh, 0.8},
		{"video fallback", models.KindVideo, `{"deepfake_risk":"medium"}`, models.RiskModerate, 0.5},
		{"video unknown", models.KindVideo, `{}`, models.RiskUnknown, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DefaultThresholds.RiskFromPayload(tt.kind, gjson.Parse(tt.payload))
			if got.Level != tt.want || got.NormalizedScore != tt.score {
				t.Errorf("got %s/%v, want %s/%v", got.Level, got.NormalizedScore, tt.want, tt.score)
			}
		})
	}
}
