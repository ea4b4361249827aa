package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cyberguard/models"
)

// BuildExport assembles the downloadable JSON document for a rendered view.
func BuildExport(view *models.View, raw json.RawMessage, now time.Time) models.Export {
	var sb strings.Builder
	for _, s := range view.Sections {
		sb.WriteString(s.Title)
		sb.WriteByte('\n')
		for _, f := range s.Fields {
			fmt.Fprintf(&sb, "%s: %s\n", f.Key, PlainText(f.Value))
		}
		sb.WriteByte('\n')
	}
	return models.Export{
		Timestamp:       now.UTC(),
		RiskAssessment:  view.Risk.DisplayLabel,
		Analysis:        strings.TrimSpace(sb.String()),
		View:            view,
		Recommendations: view.Recommendations,
		Raw:             raw,
	}
}

// ExportFilename is the download name for an export made at now.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("misinformation-analysis-%d.json", now.UnixMilli())
}
