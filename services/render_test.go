package services

import (
	"errors"
	"reflect"
	"testing"

	"cyberguard/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRender_TextScenario(t *testing.T) {
	r := NewRenderer(DefaultThresholds, nil)
	payload := `{"misinformation_score":0.85,"confidence":0.9,"analysis":{"gemini_analysis":{"status":"success","fake_news_verdict":"FAKE NEWS","confidence":90,"analysis":"line1\nline2"}},"recommendations":[]}`

	view, err := r.Render(models.KindText, []byte(payload))
	if err != nil {
		t.Fatal(err)
	}
	if view.Risk.Level != models.RiskHigh {
		t.Errorf("risk = %s, want High", view.Risk.Level)
	}
	if view.Verdict != models.VerdictFake {
		t.Errorf("verdict = %s, want verdict-fake", view.Verdict)
	}
	if !reflect.DeepEqual(view.Recommendations, []string{NoRecommendations}) {
		t.Errorf("recommendations = %v", view.Recommendations)
	}
	if view.Scores[0].Value != "85.0%" || view.Scores[1].Value != "90.0%" {
		t.Errorf("scores = %+v", view.Scores)
	}
}

func TestRender_ImageScenario(t *testing.T) {
	r := NewRenderer(DefaultThresholds, nil)
	view, err := r.Render(models.KindImage, []byte(`{"deepfake_risk":"low","status":"basic_analysis"}`))
	if err != nil {
		t.Fatal(err)
	}
	if view.Risk.Level != models.RiskLow || view.Risk.NormalizedScore != 0.2 {
		t.Errorf("risk = %+v", view.Risk)
	}
	if view.Scores[0].Value != "Low Risk (20.0%)" {
		t.Errorf("Deepfake Risk = %q", view.Scores[0].Value)
	}
	if view.Verdict != "" {
		t.Errorf("verdict = %q, want none for basic analysis", view.Verdict)
	}
}

func TestRender_VideoUnknownRisk(t *testing.T) {
	r := NewRenderer(DefaultThresholds, nil)
	view, err := r.Render(models.KindVideo, []byte(`{"overall_deepfake_risk":"weird","frames_analyzed":3,"status":"success"}`))
	if err != nil {
		t.Fatal(err)
	}
	if !view.Risk.Placeholder || view.Scores[0].Value != "Unknown" {
		t.Errorf("risk = %+v, score = %q", view.Risk, view.Scores[0].Value)
	}
	if view.Scores[1].Value != "3" {
		t.Errorf("Frames Analyzed = %q", view.Scores[1].Value)
	}
}

func TestRender_ImageErrorPlaceholderScore(t *testing.T) {
	r := NewRenderer(DefaultThresholds, nil)
	payload := `{"error":"Could not load image","deepfake_risk":"unknown","deepfake_score":0.5,"confidence":0.1}`
	view, err := r.Render(models.KindImage, []byte(payload))
	if err != nil {
		t.Fatal(err)
	}
	if view.Risk.Level != models.RiskUnknown || !view.Risk.Placeholder {
		t.Errorf("risk = %+v, want Unknown placeholder", view.Risk)
	}
	if view.Scores[0].Value != "Unknown" {
		t.Errorf("Deepfake Risk = %q, want Unknown", view.Scores[0].Value)
	}
}

func TestRender_Errors(t *testing.T) {
	r := NewRenderer(DefaultThresholds, nil)
	if _, err := r.Render(models.KindText, []byte("<html>")); !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("malformed payload err = %v", err)
	}
	if _, err := r.Render(models.Kind("audio"), []byte("{}")); err == nil {
		t.Error("unknown kind should fail")
	}
}

func TestRender_CustomRules(t *testing.T) {
	rules, err := ParseVerdictRules([]byte("version: 1\nrules:\n  - name: n\n    token: verdict-moderate\n    keywords: [fake]\n"))
	if err != nil {
		t.Fatal(err)
	}
	r := NewRenderer(Thresholds{Low: 0.5, High: 0.9}, rules)
	view, err := r.Render(models.KindText, []byte(`{"misinformation_score":0.85,"analysis":{"gemini_analysis":{"status":"success","fake_news_verdict":"FAKE"}}}`))
	if err != nil {
		t.Fatal(err)
	}
	if view.Verdict != models.VerdictModerate || view.Risk.Level != models.RiskModerate {
		t.Errorf("verdict = %s, risk = %s", view.Verdict, view.Risk.Level)
	}
}

func TestRender_Metrics(t *testing.T) {
	m := NewMetrics(nil)
	r := NewRenderer(DefaultThresholds, nil)
	r.Metrics = m

	if _, err := r.Render(models.KindText, []byte(`{"misinformation_score":0.1,"analysis":{}}`)); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(m.renders.WithLabelValues("text", "Low")); got != 1 {
		t.Errorf("renders_total{text,Low} = %v, want 1", got)
	}
}

func TestRenderRecommendations(t *testing.T) {
	if got := RenderRecommendations(nil); !reflect.DeepEqual(got, []string{NoRecommendations}) {
		t.Errorf("nil = %v", got)
	}
	in := []string{"b", "", "a"}
	got := RenderRecommendations(in)
	if !reflect.DeepEqual(got, in) {
		t.Errorf("verbatim = %v", got)
	}
	got[0] = "changed"
	if in[0] != "b" {
		t.Error("RenderRecommendations must not alias its input")
	}
}
