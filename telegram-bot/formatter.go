package main

import (
	"fmt"
	"html"
	"math"
	"sort"
	"strings"
	"unicode"

	"cyberguard/models"
	"cyberguard/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram rejects messages longer than this many characters.
const maxMessageRunes = 4096

// room kept free for the truncation note
const truncateReserve = 120

const (
	maxRecommendationRunes     = maxMessageRunes / 4
	maxRecommendationItemRunes = 300
	// shortest a long field may be cut to before its section is dropped
	minFieldRunes = 80
)

const maxHistoryLines = 10

func escHTML(s string) string {
	return html.EscapeString(s)
}

func riskEmoji(level models.RiskLevel) string {
	switch level {
	case models.RiskHigh:
		return "🔴"
	case models.RiskModerate:
		return "🟡"
	case models.RiskLow:
		return "🟢"
	default:
		return "⚪"
	}
}

func verdictEmoji(v models.VerdictToken) string {
	switch v {
	case models.VerdictFake:
		return "🚫"
	case models.VerdictLegitimate:
		return "✅"
	case models.VerdictModerate:
		return "⚠️"
	default:
		return "❔"
	}
}

var kindLabels = map[models.Kind]string{
	models.KindText:  "📝 Text",
	models.KindImage: "🖼 Image",
	models.KindVideo: "🎬 Video",
}

// scoreBar draws a ten-cell meter for a 0..100 percentage.
func scoreBar(percent float64) string {
	filled := int(math.Round(percent / 10))
	if filled < 0 {
		filled = 0
	}
	if filled > 10 {
		filled = 10
	}
	return "<code>[" + strings.Repeat("█", filled) + strings.Repeat("░", 10-filled) + "]</code>"
}

// FormatView renders a result panel as Telegram HTML. When the message would
// exceed Telegram's limit, long multiline values are shortened first and whole
// sections are dropped from the end only if that is not enough. The AI section
// is never dropped.
func FormatView(v *models.View, sourceLabel string) string {
	var b strings.Builder

	if sourceLabel != "" {
		fmt.Fprintf(&b, "📢 <b>Source:</b> %s\n", sourceLabel)
	}
	fmt.Fprintf(&b, "%s <b>%s</b>  %s\n", riskEmoji(v.Risk.Level), escHTML(v.Risk.DisplayLabel), kindLabels[v.Kind])
	fmt.Fprintf(&b, "%s %.1f%%\n", scoreBar(v.Risk.Percent), v.Risk.Percent)
	for _, f := range v.Scores {
		fmt.Fprintf(&b, "%s: <b>%s</b>\n", escHTML(f.Key), services.SafeMarkup(f.Value))
	}
	if v.Verdict != "" {
		fmt.Fprintf(&b, "%s AI verdict\n", verdictEmoji(v.Verdict))
	}

	tail := formatRecommendations(v.Recommendations)
	room := maxMessageRunes - truncateReserve - runeLen(tail) - runeLen(b.String())

	body, dropped, shortened := fitSections(v.Sections, room)
	b.WriteString(body)
	switch {
	case dropped > 0:
		fmt.Fprintf(&b, "\n<i>%d more section(s) omitted. Open the shared report for the full analysis.</i>\n", dropped)
	case shortened:
		b.WriteString("\n<i>Long fields were shortened. Open the shared report for the full analysis.</i>\n")
	}
	b.WriteString(tail)

	return strings.TrimRight(b.String(), "\n")
}

// fitSections renders as many leading sections as fit in room runes, keeping
// at least the first one.
func fitSections(sections []models.Section, room int) (string, int, bool) {
	for keep := len(sections); keep > 1; keep-- {
		if out, shortened, ok := renderCapped(sections[:keep], room); ok {
			return out, len(sections) - keep, shortened
		}
	}
	if len(sections) == 0 {
		return "", 0, false
	}
	out, shortened, _ := renderCapped(sections[:1], room)
	return out, len(sections) - 1, shortened
}

// renderCapped renders sections, cutting multiline values to a common cap
// when the full rendering does not fit. ok is false when even values cut to
// minFieldRunes overflow room.
func renderCapped(sections []models.Section, room int) (out string, shortened, ok bool) {
	out = renderSections(sections, 0)
	if runeLen(out) <= room {
		return out, false, true
	}

	var lengths []int
	for _, s := range sections {
		for _, f := range s.Fields {
			if f.Multiline {
				lengths = append(lengths, runeLen(services.SafeMarkup(f.Value)))
			}
		}
	}
	if len(lengths) == 0 {
		return "", false, false
	}
	// at cap 1 every non-empty multiline value renders as a single rune
	fixed := runeLen(renderSections(sections, 1))
	for _, n := range lengths {
		if n > 0 {
			fixed--
		}
	}
	limit := fieldCap(lengths, room-fixed)
	if limit < minFieldRunes {
		limit = minFieldRunes
	}
	out = renderSections(sections, limit)
	return out, true, runeLen(out) <= room
}

// fieldCap is the largest per-value cap whose capped lengths sum to at most
// avail.
func fieldCap(lengths []int, avail int) int {
	sorted := append([]int(nil), lengths...)
	sort.Ints(sorted)
	for i, n := range sorted {
		share := avail / (len(sorted) - i)
		if n > share {
			return share
		}
		avail -= n
	}
	return avail
}

func renderSections(sections []models.Section, limit int) string {
	var b strings.Builder
	for _, s := range sections {
		b.WriteString(formatSection(s, limit))
	}
	return b.String()
}

// formatSection renders one section. A positive limit caps every multiline
// value at that many runes.
func formatSection(s models.Section, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s <b>%s</b>\n", s.Icon, escHTML(s.Title))
	for _, f := range s.Fields {
		if f.Multiline {
			fmt.Fprintf(&b, "• %s:\n%s\n", escHTML(f.Key), shortMarkup(f.Value, limit))
			continue
		}
		fmt.Fprintf(&b, "• %s: %s\n", escHTML(f.Key), services.SafeMarkup(f.Value))
	}
	return b.String()
}

// shortMarkup is SafeMarkup cut to at most limit runes. A value that has to be
// cut loses its inline tags and ends with an ellipsis.
func shortMarkup(value string, limit int) string {
	out := services.SafeMarkup(value)
	if limit <= 0 || runeLen(out) <= limit {
		return out
	}
	text := []rune(services.PlainText(value))
	n := limit - 1
	if n > len(text) {
		n = len(text)
	}
	for n > 0 {
		out = escHTML(strings.TrimRightFunc(string(text[:n]), unicode.IsSpace)) + "…"
		over := runeLen(out) - limit
		if over <= 0 {
			return out
		}
		n -= over
	}
	return "…"
}

// formatRecommendations renders the list within maxRecommendationRunes,
// replacing whatever does not fit with a count.
func formatRecommendations(recs []string) string {
	if len(recs) == 0 {
		return ""
	}
	const header = "\n💡 <b>Recommendations</b>\n"
	var b strings.Builder
	b.WriteString(header)
	used := runeLen(header)
	for i, r := range recs {
		line := "• " + shortMarkup(r, maxRecommendationItemRunes) + "\n"
		reserve := 0
		if i < len(recs)-1 {
			reserve = runeLen("…and 9999 more\n")
		}
		if used+runeLen(line)+reserve > maxRecommendationRunes {
			fmt.Fprintf(&b, "…and %d more\n", len(recs)-i)
			break
		}
		b.WriteString(line)
		used += runeLen(line)
	}
	return b.String()
}

func runeLen(s string) int {
	return len([]rune(s))
}

func FormatProgress(kind models.Kind) string {
	return fmt.Sprintf("⏳ <b>Analyzing...</b>  %s\n\n<code>Waiting for the analysis service</code>", kindLabels[kind])
}

func FormatNotice(n models.Notice) string {
	icon := "ℹ️"
	switch n.Level {
	case models.NoticeError:
		icon = "❌"
	case models.NoticeWarning:
		icon = "⚠️"
	case models.NoticeSuccess:
		icon = "✅"
	}
	return icon + " " + escHTML(n.Message)
}

func FormatStatus(label string, st *models.Status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n", escHTML(label))
	if st == nil {
		return strings.TrimRight(b.String(), "\n")
	}
	line := func(name string, ok bool) {
		mark := "❌"
		if ok {
			mark = "✅"
		}
		fmt.Fprintf(&b, "%s %s\n", mark, name)
	}
	line("Gemini AI", st.GeminiAvailable)
	line("News sources", st.NewsAvailable())
	line("Fact checking", st.FactCheckAvailable)
	return strings.TrimRight(b.String(), "\n")
}

func FormatHistory(entries []models.HistoryEntry) string {
	if len(entries) == 0 {
		return "📂 History is empty."
	}
	var b strings.Builder
	b.WriteString("📂 <b>Recent analyses</b>\n")
	for i, e := range entries {
		if i == maxHistoryLines {
			fmt.Fprintf(&b, "…and %d more\n", len(entries)-maxHistoryLines)
			break
		}
		star := ""
		if e.IsFavorite {
			star = " ⭐"
		}
		preview := e.ContentPreview
		if preview == "" {
			preview = e.FileName
		}
		if r := []rune(preview); len(r) > 60 {
			preview = string(r[:60]) + "…"
		}
		fmt.Fprintf(&b, "<code>#%d</code> %s %.1f%% %s%s\n",
			e.ID, kindLabels[e.Kind()], e.RiskScore*100, escHTML(preview), star)
	}
	b.WriteString("\nSend <code>/history &lt;id&gt;</code> to open an entry.")
	return b.String()
}

func GetResultKeyboard(shareURL, rescanKey string) tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	if shareURL != "" {
		row = append(row, tgbotapi.NewInlineKeyboardButtonURL("🔗 Share", shareURL))
	}
	if rescanKey != "" {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("🔄 Re-check", "rescan:"+rescanKey))
	}
	if len(row) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}
