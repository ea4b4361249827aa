package services

import (
	"math"
	"strconv"
	"strings"

	"cyberguard/models"

	"github.com/tidwall/gjson"
)

const (
	valueUnknown = "Unknown"
	valueNA      = "N/A"
)

// percent1 formats a 0..1 fraction as a one-decimal percentage.
func percent1(fraction float64) string {
	return strconv.FormatFloat(fraction*100, 'f', 1, 64) + "%"
}

// intPercent formats a 0..100 confidence as an integer percentage.
func intPercent(v gjson.Result) string {
	if !v.Exists() || v.Type == gjson.Null {
		return "0%"
	}
	return strconv.FormatInt(int64(math.Round(v.Float())), 10) + "%"
}

func fixed2(v gjson.Result, missing string) string {
	if v.Type != gjson.Number {
		return missing
	}
	return strconv.FormatFloat(v.Float(), 'f', 2, 64)
}

// fixed2Set is fixed2 for measurements where zero means "not measured".
func fixed2Set(v gjson.Result, missing string) string {
	if v.Type != gjson.Number || v.Float() == 0 {
		return missing
	}
	return strconv.FormatFloat(v.Float(), 'f', 2, 64)
}

func intOr(v gjson.Result, missing string) string {
	if v.Type != gjson.Number {
		return missing
	}
	return strconv.FormatInt(v.Int(), 10)
}

func textOr(v gjson.Result, missing string) string {
	if !v.Exists() || v.Type == gjson.Null {
		return missing
	}
	if s := strings.TrimSpace(v.String()); s != "" {
		return s
	}
	return missing
}

func yesNo(v gjson.Result) string {
	if v.Bool() {
		return "Yes"
	}
	return "No"
}

// withLineBreaks converts newlines into explicit line-break markers.
func withLineBreaks(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", models.LineBreak)
}

// SplitLines undoes withLineBreaks for renderers that draw their own breaks.
func SplitLines(value string) []string {
	return strings.Split(value, models.LineBreak)
}

// FormatFileSize renders a byte count the way the upload preview does.
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	const k = 1024
	sizes := []string{"Bytes", "KB", "MB", "GB"}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(k)))
	if i >= len(sizes) {
		i = len(sizes) - 1
	}
	v := float64(bytes) / math.Pow(k, float64(i))
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64) + " " + sizes[i]
}
