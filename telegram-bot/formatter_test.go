package main

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"cyberguard/models"
	"cyberguard/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func render(t *testing.T, kind models.Kind, payload string) *models.View {
	t.Helper()
	view, err := services.NewRenderer(services.DefaultThresholds, nil).Render(kind, []byte(payload))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return view
}

func TestFormatView_TextResult(t *testing.T) {
	view := render(t, models.KindText, `{"misinformation_score":0.85,"confidence":0.9,"analysis":{"gemini_analysis":{"status":"success","fake_news_verdict":"FAKE NEWS","confidence":90,"analysis":"<script>x</script> line1\n<b>line2</b>"}},"recommendations":["Check <i>sources</i>"]}`)
	out := FormatView(view, "Some Channel")

	for _, want := range []string{
		"📢 <b>Source:</b> Some Channel",
		"🔴 <b>High Risk</b>",
		"<code>[█████████░]</code> 85.0%",
		"🚫 AI verdict",
		"<b>Gemini AI Expert Analysis</b>",
		"line1\n<b>line2</b>",
		"💡 <b>Recommendations</b>",
		"• Check <i>sources</i>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "<script>") || strings.Contains(out, "<br>") {
		t.Errorf("unsafe markup leaked:\n%s", out)
	}
}

func TestFormatView_UnavailableAnalysis(t *testing.T) {
	view := render(t, models.KindText, `{"misinformation_score":0.1,"analysis":null}`)
	out := FormatView(view, "")
	if !strings.Contains(out, "🟢 <b>Low Risk</b>") || !strings.Contains(out, "Analysis Data Unavailable") {
		t.Errorf("output:\n%s", out)
	}
	if !strings.Contains(out, services.NoRecommendations) {
		t.Errorf("missing placeholder recommendation:\n%s", out)
	}
}

func longTextPayload(analysis string, recs []string) string {
	quoted := make([]string, len(recs))
	for i, r := range recs {
		quoted[i] = strconv.Quote(r)
	}
	return `{"misinformation_score":0.9,"confidence":0.8,"analysis":{` +
		`"gemini_analysis":{"status":"success","fake_news_verdict":"FAKE NEWS","confidence":95,"analysis":` + strconv.Quote(analysis) + `},` +
		`"linguistic_patterns":{"risk_level":"high","suspicious_phrases":3,"emotional_words":2,"caps_ratio":0.2},` +
		`"fact_check":{"status":"success","claims_found":2,"claims":[]}},` +
		`"recommendations":[` + strings.Join(quoted, ",") + `]}`
}

func TestFormatView_LongAIAnalysisIsShortened(t *testing.T) {
	view := render(t, models.KindText, longTextPayload(strings.Repeat("word ", 1200), nil))
	out := FormatView(view, "")

	if n := len([]rune(out)); n > maxMessageRunes {
		t.Fatalf("message is %d runes", n)
	}
	for _, want := range []string{
		"<b>Gemini AI Expert Analysis</b>",
		"• AI Verdict: FAKE NEWS",
		"• Confidence: 95%",
		"…\n",
		"<b>Linguistic Analysis</b>",
		"<b>Fact Check Results</b>",
		"Long fields were shortened",
		services.NoRecommendations,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "omitted") {
		t.Error("no section should be dropped when shortening is enough")
	}
}

func manyRecommendations(n int) []string {
	recs := make([]string, n)
	for i := range recs {
		recs[i] = fmt.Sprintf("%02d 🔍 ", i) + strings.Repeat("verify ", 14) + "now"
	}
	return recs
}

func TestFormatView_ManyRecommendations(t *testing.T) {
	recs := manyRecommendations(60)
	view := render(t, models.KindText, longTextPayload("short", recs))
	out := FormatView(view, "")

	if n := len([]rune(out)); n > maxMessageRunes {
		t.Fatalf("message is %d runes", n)
	}
	if !strings.Contains(out, "• "+recs[0]) {
		t.Error("first recommendation missing")
	}
	if strings.Contains(out, recs[59]) || !strings.HasSuffix(out, " more") {
		t.Errorf("expected the tail of the list to be summarized:\n%s", out)
	}
	if !strings.Contains(out, "<b>Fact Check Results</b>") {
		t.Error("sections must survive a long recommendation list")
	}
}

func TestFormatView_WorstCaseStaysUnderLimit(t *testing.T) {
	long := strings.Repeat("<b>bold</b> & ", 2000)
	view := render(t, models.KindText, longTextPayload(long, manyRecommendations(200)))
	out := FormatView(view, "A very long channel name")
	if n := len([]rune(out)); n > maxMessageRunes {
		t.Fatalf("message is %d runes", n)
	}
	if !strings.Contains(out, "FAKE NEWS") {
		t.Error("verdict must survive truncation")
	}
}

func TestShortMarkup(t *testing.T) {
	if got := shortMarkup("<b>short</b>", 100); got != "<b>short</b>" {
		t.Errorf("short value changed: %q", got)
	}
	got := shortMarkup("<b>alpha</b> & beta gamma delta", 12)
	if n := len([]rune(got)); n > 12 {
		t.Errorf("%q is %d runes", got, n)
	}
	if !strings.HasSuffix(got, "…") || strings.Contains(got, "<b>") {
		t.Errorf("cut value = %q", got)
	}
	if got := shortMarkup("x<br>y", 0); got != "x\ny" {
		t.Errorf("no limit = %q", got)
	}
}

func TestFormatHistory(t *testing.T) {
	if got := FormatHistory(nil); got != "📂 History is empty." {
		t.Errorf("empty = %q", got)
	}
	entries := []models.HistoryEntry{
		{ID: 7, AnalysisType: "image", FileName: "cat.png", RiskScore: 0.25, IsFavorite: true},
		{ID: 8, AnalysisType: "text", ContentPreview: "a <b> c", RiskScore: 0.8},
	}
	out := FormatHistory(entries)
	for _, want := range []string{"<code>#7</code> 🖼 Image 25.0% cat.png ⭐", "<code>#8</code> 📝 Text 80.0% a &lt;b&gt; c"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in\n%s", want, out)
		}
	}
}

func TestFormatNoticeAndStatus(t *testing.T) {
	if got := FormatNotice(models.Notice{Level: models.NoticeWarning, Message: "Text must be <10>"}); got != "⚠️ Text must be &lt;10&gt;" {
		t.Errorf("notice = %q", got)
	}
	st := &models.Status{GeminiAvailable: true, GNewsAvailable: true}
	out := FormatStatus("✅ API Ready", st)
	if !strings.Contains(out, "✅ News sources") || !strings.Contains(out, "❌ Fact checking") {
		t.Errorf("status:\n%s", out)
	}
	if got := FormatStatus("❌ API Unavailable", nil); got != "<b>❌ API Unavailable</b>" {
		t.Errorf("unavailable = %q", got)
	}
}

func TestGetResultKeyboard(t *testing.T) {
	if kb := GetResultKeyboard("", ""); len(kb.InlineKeyboard) != 0 {
		t.Errorf("expected empty keyboard, got %v", kb.InlineKeyboard)
	}
	kb := GetResultKeyboard("https://viewer/s/1", "1:2")
	if len(kb.InlineKeyboard) != 1 || len(kb.InlineKeyboard[0]) != 2 {
		t.Fatalf("keyboard = %v", kb.InlineKeyboard)
	}
	if data := kb.InlineKeyboard[0][1].CallbackData; data == nil || *data != "rescan:1:2" {
		t.Errorf("callback data = %v", data)
	}
}

func TestRequestFromMessage(t *testing.T) {
	photo := &tgbotapi.Message{Photo: []tgbotapi.PhotoSize{
		{FileID: "small", Width: 90, Height: 90},
		{FileID: "large", Width: 1280, Height: 960, FileSize: 2048},
		{FileID: "mid", Width: 320, Height: 240},
	}}
	req, ok := requestFromMessage(photo)
	if !ok || req.Kind != models.KindImage || req.FileID != "large" || req.Size != 2048 {
		t.Errorf("photo request = %+v", req)
	}

	doc := &tgbotapi.Message{Document: &tgbotapi.Document{FileID: "d", FileName: "clip.mov", MimeType: "video/quicktime"}}
	if req, ok := requestFromMessage(doc); !ok || req.Kind != models.KindVideo {
		t.Errorf("video document = %+v", req)
	}
	pdf := &tgbotapi.Message{Document: &tgbotapi.Document{FileID: "p", MimeType: "application/pdf"}}
	if _, ok := requestFromMessage(pdf); ok {
		t.Error("pdf should not be analysable")
	}

	caption := &tgbotapi.Message{Caption: "  forwarded claim text  "}
	if req, ok := requestFromMessage(caption); !ok || req.Kind != models.KindText || req.Text != "forwarded claim text" {
		t.Errorf("caption request = %+v", req)
	}
	if _, ok := requestFromMessage(&tgbotapi.Message{}); ok {
		t.Error("empty message should not be analysable")
	}
}

func TestForwardSource(t *testing.T) {
	msg := &tgbotapi.Message{ForwardFromChat: &tgbotapi.Chat{Title: "News & Co", UserName: "newsco"}}
	if got := forwardSource(msg); got != `<a href="https://t.me/newsco">News &amp; Co</a>` {
		t.Errorf("channel source = %q", got)
	}
	if got := forwardSource(&tgbotapi.Message{ForwardSenderName: "Hidden"}); got != "Hidden" {
		t.Errorf("hidden sender = %q", got)
	}
}
