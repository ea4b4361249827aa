package services

import (
	"errors"
	"fmt"
	"time"

	"cyberguard/models"

	"github.com/tidwall/gjson"
)

// ErrMalformedPayload is returned when the backend body is not valid JSON.
var ErrMalformedPayload = errors.New("malformed analysis payload")

// Renderer turns raw backend payloads into views. It is safe for concurrent use
// as long as Rules is.
type Renderer struct {
	Thresholds Thresholds
	Rules      VerdictClassifier
	Metrics    *Metrics
}

func NewRenderer(t Thresholds, rules VerdictClassifier) *Renderer {
	if rules == nil {
		rules = defaultVerdictRules
	}
	return &Renderer{Thresholds: t, Rules: rules}
}

// Render never fails on missing or oddly shaped fields; those become
// placeholders. Only a body that is not JSON at all is an error.
func (r *Renderer) Render(kind models.Kind, payload []byte) (*models.View, error) {
	if _, ok := models.ParseKind(string(kind)); !ok {
		return nil, fmt.Errorf("render: unknown kind %q", kind)
	}
	if !gjson.ValidBytes(payload) {
		return nil, ErrMalformedPayload
	}

	rules := r.Rules
	if rules == nil {
		rules = defaultVerdictRules
	}
	doc := gjson.ParseBytes(payload)

	view := &models.View{
		Kind:            kind,
		Risk:            r.Thresholds.RiskFromPayload(kind, doc),
		Scores:          r.headlineScores(kind, doc),
		Sections:        buildSections(kind, doc, rules),
		Recommendations: RenderRecommendations(stringList(doc.Get("recommendations"))),
		RenderedAt:      time.Now(),
	}
	view.Verdict = aiVerdictToken(view.Sections)
	r.Metrics.observeRender(kind, view)
	return view, nil
}

func (r *Renderer) headlineScores(kind models.Kind, doc gjson.Result) []models.Field {
	switch kind {
	case models.KindText:
		conf := valueNA
		if c := doc.Get("confidence"); c.Type == gjson.Number {
			conf = percent1(clampScore(c.Float()))
		}
		return []models.Field{
			{Key: "Misinformation Score", Value: percent1(clampScore(doc.Get("misinformation_score").Float()))},
			{Key: "Confidence", Value: conf},
		}
	case models.KindImage:
		risk := r.Thresholds.RiskFromPayload(kind, doc)
		return []models.Field{
			{Key: "Deepfake Risk", Value: riskValue(risk), Badge: risk.StyleClass},
			{Key: "Analysis Status", Value: textOr(doc.Get("status"), valueUnknown)},
		}
	default:
		risk := r.Thresholds.RiskFromPayload(kind, doc)
		return []models.Field{
			{Key: "Overall Risk", Value: riskValue(risk), Badge: risk.StyleClass},
			{Key: "Frames Analyzed", Value: intOr(doc.Get("frames_analyzed"), "0")},
			{Key: "High Risk Frames", Value: intOr(doc.Get("high_risk_frames"), "0")},
			{Key: "Status", Value: textOr(doc.Get("status"), valueUnknown)},
		}
	}
}

func riskValue(rc models.RiskClassification) string {
	if rc.Placeholder {
		return rc.DisplayLabel
	}
	return fmt.Sprintf("%s (%s)", rc.DisplayLabel, percent1(rc.NormalizedScore))
}

// aiVerdictToken reads the badge of the AI verdict field, if the AI section
// reported one.
func aiVerdictToken(sections []models.Section) models.VerdictToken {
	for _, s := range sections {
		if s.Title != aiSectionTitle {
			continue
		}
		for _, f := range s.Fields {
			if f.Key == "AI Verdict" {
				return models.VerdictToken(f.Badge)
			}
		}
	}
	return ""
}

func stringList(v gjson.Result) []string {
	if !v.IsArray() {
		return nil
	}
	arr := v.Array()
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		out = append(out, item.String())
	}
	return out
}
