package services

import (
	"math"
	"strings"

	"cyberguard/models"

	"github.com/tidwall/gjson"
)

// Thresholds is the single low/high pair shared by every score-based bucket.
// score < Low is Low, Low <= score < High is Moderate, score >= High is High.
type Thresholds struct {
	Low  float64
	High float64
}

var DefaultThresholds = Thresholds{Low: 0.3, High: 0.7}

// Fixed meter fills for qualitative labels. Unknown gets the midpoint as a
// placeholder, not as a probability.
const (
	qualitativeLowScore      = 0.2
	qualitativeModerateScore = 0.5
	qualitativeHighScore     = 0.8
	unknownPlaceholderScore  = 0.5
)

func ClassifyRisk(score float64) models.RiskClassification {
	return DefaultThresholds.ClassifyRisk(score)
}

func (t Thresholds) ClassifyRisk(score float64) models.RiskClassification {
	score = clampScore(score)
	switch {
	case score >= t.High:
		return riskClass(models.RiskHigh, score)
	case score >= t.Low:
		return riskClass(models.RiskModerate, score)
	default:
		return riskClass(models.RiskLow, score)
	}
}

func ClassifyQualitativeRisk(label string) models.RiskClassification {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "low":
		return riskClass(models.RiskLow, qualitativeLowScore)
	case "medium", "moderate":
		return riskClass(models.RiskModerate, qualitativeModerateScore)
	case "high":
		return riskClass(models.RiskHigh, qualitativeHighScore)
	default:
		rc := riskClass(models.RiskUnknown, unknownPlaceholderScore)
		rc.Placeholder = true
		return rc
	}
}

// RiskFromPayload maps whichever score representation the backend sent onto
// one classification. Text uses misinformation_score. For image and video the
// qualitative label wins: error payloads pair deepfake_risk "unknown" with a
// placeholder deepfake_score, so the number is used only when no label exists.
func (t Thresholds) RiskFromPayload(kind models.Kind, doc gjson.Result) models.RiskClassification {
	if kind == models.KindText {
		return t.ClassifyRisk(doc.Get("misinformation_score").Float())
	}
	if label := qualitativeLabel(kind, doc); label != "" {
		return ClassifyQualitativeRisk(label)
	}
	if score := doc.Get("deepfake_score"); score.Type == gjson.Number {
		return t.ClassifyRisk(score.Float())
	}
	return ClassifyQualitativeRisk("")
}

func qualitativeLabel(kind models.Kind, doc gjson.Result) string {
	if kind == models.KindVideo {
		if v := doc.Get("overall_deepfake_risk"); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return strings.TrimSpace(doc.Get("deepfake_risk").String())
}

func riskClass(level models.RiskLevel, score float64) models.RiskClassification {
	rc := models.RiskClassification{
		Level:           level,
		NormalizedScore: score,
		Percent:         math.Round(score*1000) / 10,
	}
	switch level {
	case models.RiskLow:
		rc.DisplayLabel, rc.StyleClass = "Low Risk", "risk-low"
	case models.RiskModerate:
		rc.DisplayLabel, rc.StyleClass = "Moderate Risk", "risk-moderate"
	case models.RiskHigh:
		rc.DisplayLabel, rc.StyleClass = "High Risk", "risk-high"
	default:
		rc.DisplayLabel, rc.StyleClass = "Unknown", "risk-unknown"
	}
	return rc
}

func clampScore(score float64) float64 {
	switch {
	case math.IsNaN(score) || score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}
