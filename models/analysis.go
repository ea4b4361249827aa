package models

import (
	"encoding/json"
	"time"
)

// Kind tags an analysis payload by the endpoint that produced it.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

var Kinds = []Kind{KindText, KindImage, KindVideo}

func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
	RiskUnknown  RiskLevel = "Unknown"
)

// Rank orders levels for comparisons; Unknown ranks below Low.
func (l RiskLevel) Rank() int {
	switch l {
	case RiskLow:
		return 1
	case RiskModerate:
		return 2
	case RiskHigh:
		return 3
	default:
		return 0
	}
}

// RiskClassification is derived on the client and never sent by the backend.
type RiskClassification struct {
	Level           RiskLevel `json:"level"`
	DisplayLabel    string    `json:"display_label"`
	StyleClass      string    `json:"style_class"`
	NormalizedScore float64   `json:"normalized_score"`
	Percent         float64   `json:"percent"`
	// Placeholder marks the midpoint fill used for unrecognized labels.
	Placeholder bool `json:"placeholder,omitempty"`
}

// VerdictToken is a presentation token for a free-text AI verdict.
type VerdictToken string

const (
	VerdictFake       VerdictToken = "verdict-fake"
	VerdictLegitimate VerdictToken = "verdict-legitimate"
	VerdictModerate   VerdictToken = "verdict-moderate"
	VerdictUnknown    VerdictToken = "verdict-unknown"
)

// LineBreak replaces newlines inside multiline field values.
const LineBreak = "<br>"

type Field struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	Badge     string `json:"badge,omitempty"`
	Multiline bool   `json:"multiline,omitempty"`
}

type Section struct {
	Title  string  `json:"title"`
	Icon   string  `json:"icon"`
	Fields []Field `json:"fields"`
}

// View is everything a front end needs to draw one result panel.
type View struct {
	Kind            Kind               `json:"kind"`
	Risk            RiskClassification `json:"risk"`
	Scores          []Field            `json:"scores"`
	Verdict         VerdictToken       `json:"verdict,omitempty"`
	Sections        []Section          `json:"sections"`
	Recommendations []string           `json:"recommendations"`
	Source          string             `json:"source,omitempty"`
	RenderedAt      time.Time          `json:"rendered_at"`
}

// Status mirrors GET /api/status.
type Status struct {
	GeminiAvailable    bool   `json:"gemini_available"`
	NewsAPIAvailable   bool   `json:"newsapi_available"`
	NewsDataAvailable  bool   `json:"newsdata_available"`
	GNewsAvailable     bool   `json:"gnews_available"`
	FactCheckAvailable bool   `json:"factcheck_available"`
	AnalyzerReady      *bool  `json:"analyzer_ready,omitempty"`
	Error              string `json:"error,omitempty"`
}

// NewsAvailable reports whether any of the news providers is configured.
func (s *Status) NewsAvailable() bool {
	return s.NewsAPIAvailable || s.NewsDataAvailable || s.GNewsAvailable
}

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient toast shown to the user.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// Export is the JSON document produced by "export results".
type Export struct {
	Timestamp       time.Time       `json:"timestamp"`
	RiskAssessment  string          `json:"risk_assessment"`
	Analysis        string          `json:"analysis"`
	View            *View           `json:"view"`
	Recommendations []string        `json:"recommendations"`
	Raw             json.RawMessage `json:"raw,omitempty"`
}
