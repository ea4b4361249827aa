package services

import (
	"fmt"
	"strings"

	"cyberguard/models"

	"github.com/tidwall/gjson"
)

// MaxFrameDetails bounds the per-frame breakdowns of a video result.
const MaxFrameDetails = 5

const (
	aiSectionTitle       = "Gemini AI Expert Analysis"
	unavailableTitle     = "Analysis Data Unavailable"
	unavailableMessage   = "The analysis service returned no analysis data for this submission."
	noAIAnalysisMessage  = "No AI analysis available"
	unknownErrorMessage  = "Unknown error occurred"
	configureTextMessage = "Configure GEMINI_API_KEY to enable advanced AI-powered fake news detection with expert-level analysis and definitive verdicts."
	configureMediaFormat = "Configure GEMINI_API_KEY to enable advanced AI-powered deepfake detection with expert-level %s analysis and definitive verdicts."
)

// BuildSections renders a backend payload into sections using the default
// verdict rules. Sections come out in a fixed order: AI verdict, linguistic,
// sentiment, fact-check, news, image technical data, video frames.
func BuildSections(kind models.Kind, payload []byte) []models.Section {
	return buildSections(kind, gjson.ParseBytes(payload), defaultVerdictRules)
}

func buildSections(kind models.Kind, doc gjson.Result, rules VerdictClassifier) []models.Section {
	analysis := doc.Get("analysis")
	if analysis.Type == gjson.Null && analysis.Exists() {
		return []models.Section{unavailableSection()}
	}
	if kind == models.KindText && !analysis.IsObject() {
		return []models.Section{unavailableSection()}
	}

	b := sectionBuilder{doc: doc, rules: rules}
	sections := []models.Section{b.aiSection(kind)}

	switch kind {
	case models.KindText:
		sections = b.appendPresent(sections,
			b.linguisticSection(),
			b.sentimentSection(),
			b.factCheckSection(),
			b.newsSection(),
		)
	case models.KindImage:
		sections = b.appendPresent(sections,
			b.technicalSection(),
			b.imagePropertiesSection(),
		)
	case models.KindVideo:
		sections = b.appendPresent(sections,
			b.videoPropertiesSection(),
			b.frameSummarySection(),
		)
		sections = append(sections, b.frameSections()...)
	}
	return sections
}

type sectionBuilder struct {
	doc   gjson.Result
	rules VerdictClassifier
}

func (b *sectionBuilder) appendPresent(dst []models.Section, candidates ...*models.Section) []models.Section {
	for _, s := range candidates {
		if s != nil {
			dst = append(dst, *s)
		}
	}
	return dst
}

// first returns the first path that holds an object.
func (b *sectionBuilder) first(paths ...string) gjson.Result {
	for _, p := range paths {
		if v := b.doc.Get(p); v.IsObject() {
			return v
		}
	}
	return gjson.Result{}
}

func unavailableSection() models.Section {
	return models.Section{
		Title:  unavailableTitle,
		Icon:   "info-circle",
		Fields: []models.Field{{Key: "Details", Value: unavailableMessage}},
	}
}

// ── AI verdict ───────────────────────────────────────────────────

func (b *sectionBuilder) aiSection(kind models.Kind) models.Section {
	sec := models.Section{Title: aiSectionTitle, Icon: "brain"}
	if kind == models.KindImage {
		sec.Fields = b.imageAIFields()
	} else {
		sec.Fields = b.verdictAIFields(kind)
	}
	return sec
}

func (b *sectionBuilder) verdictAIFields(kind models.Kind) []models.Field {
	var verdict gjson.Result
	if kind == models.KindText {
		verdict = b.first("analysis.gemini_analysis", "gemini_analysis", "ai_analysis")
	} else {
		verdict = b.first("gemini_analysis", "analysis.gemini_analysis", "ai_analysis")
	}

	status := strings.ToLower(verdict.Get("status").String())
	switch {
	case verdict.IsObject() && (status == "success" || (status == "" && hasVerdictText(verdict))):
		return b.successFields(verdict, "", verdict.Get("confidence"))
	case verdict.IsObject() && status != "" && status != "not_available":
		return failedFields(firstText(verdict, "analysis", "error"))
	case kind == models.KindVideo && b.payloadFailed():
		return failedFields(firstText(b.doc, "message", "error"))
	default:
		return notConfiguredFields(kind)
	}
}

func (b *sectionBuilder) imageAIFields() []models.Field {
	ai := b.doc.Get("ai_analysis")
	gemini := b.doc.Get("analysis.gemini_analysis")

	switch {
	case ai.Type == gjson.String && strings.TrimSpace(ai.String()) != "":
		fields := b.successFields(gemini, ai.String(), gemini.Get("confidence"))
		fields[2] = models.Field{
			Key:   "AI Risk Level",
			Value: textOr(b.doc.Get("deepfake_risk"), valueUnknown),
			Badge: badge(b.doc.Get("deepfake_risk")),
		}
		return fields
	case ai.IsObject():
		return b.successFields(ai, "", ai.Get("confidence"))
	case strings.EqualFold(b.doc.Get("status").String(), "basic_analysis"):
		return []models.Field{
			{Key: "Analysis Status", Value: "basic analysis", Badge: "basic_analysis"},
			{Key: "Details", Value: fmt.Sprintf(configureMediaFormat, "image")},
		}
	case b.payloadFailed():
		return failedFields(firstText(b.doc, "message", "error"))
	default:
		return notConfiguredFields(models.KindImage)
	}
}

// successFields renders a verdict object. analysisOverride replaces the
// object's own analysis text (image results carry it at the top level).
func (b *sectionBuilder) successFields(verdict gjson.Result, analysisOverride string, confidence gjson.Result) []models.Field {
	label, token := b.verdictLabel(verdict)

	conf := valueNA
	if confidence.Type == gjson.Number {
		conf = intPercent(confidence)
	}

	text := analysisOverride
	if text == "" {
		text = verdict.Get("analysis").String()
	}
	if strings.TrimSpace(text) == "" {
		text = noAIAnalysisMessage
	}

	riskLevel := verdict.Get("risk_level")
	return []models.Field{
		{Key: "AI Verdict", Value: label, Badge: string(token)},
		{Key: "Confidence", Value: conf},
		{Key: "AI Risk Level", Value: textOr(riskLevel, valueNA), Badge: badge(riskLevel)},
		{Key: "Analysis Status", Value: "Complete", Badge: "success"},
		{Key: "Detailed Analysis", Value: withLineBreaks(text), Multiline: true},
	}
}

// verdictLabel prefers the model's free-text verdict. Without one, the
// qualitative risk level (verdict object first, then the payload) is shown
// as "<LEVEL> RISK" and tokenized from the level itself.
func (b *sectionBuilder) verdictLabel(verdict gjson.Result) (string, models.VerdictToken) {
	if text := firstText(verdict, "fake_news_verdict", "deepfake_verdict", "verdict"); text != "" {
		return text, b.rules.Classify(text)
	}
	level := firstText(verdict, "risk_level")
	if level == "" {
		level = firstText(b.doc, "overall_deepfake_risk", "deepfake_risk")
	}
	if level == "" {
		return "UNKNOWN", models.VerdictUnknown
	}
	return strings.ToUpper(level) + " RISK", levelToken(ClassifyQualitativeRisk(level).Level)
}

func (b *sectionBuilder) payloadFailed() bool {
	if strings.EqualFold(b.doc.Get("status").String(), "error") {
		return true
	}
	e := b.doc.Get("error")
	return e.Exists() && e.Type != gjson.Null
}

func hasVerdictText(v gjson.Result) bool {
	return firstText(v, "fake_news_verdict", "deepfake_verdict", "verdict") != ""
}

func levelToken(level models.RiskLevel) models.VerdictToken {
	switch level {
	case models.RiskHigh:
		return models.VerdictFake
	case models.RiskModerate:
		return models.VerdictModerate
	case models.RiskLow:
		return models.VerdictLegitimate
	default:
		return models.VerdictUnknown
	}
}

func notConfiguredFields(kind models.Kind) []models.Field {
	msg := configureTextMessage
	if kind != models.KindText {
		msg = fmt.Sprintf(configureMediaFormat, kind)
	}
	return []models.Field{
		{Key: "Analysis Status", Value: "Not Configured", Badge: "not_configured"},
		{Key: "Details", Value: msg},
	}
}

func failedFields(message string) []models.Field {
	if message == "" {
		message = unknownErrorMessage
	}
	return []models.Field{
		{Key: "Analysis Status", Value: "Analysis Failed", Badge: "error"},
		{Key: "Details", Value: withLineBreaks(message), Multiline: true},
	}
}

// ── Text ─────────────────────────────────────────────────────────

func (b *sectionBuilder) linguisticSection() *models.Section {
	ling := b.doc.Get("analysis.linguistic_patterns")
	if !ling.IsObject() {
		return nil
	}
	caps := valueNA
	if v := ling.Get("caps_ratio"); v.Type == gjson.Number {
		caps = percent1(v.Float())
	}
	emotional := ling.Get("emotional_language")
	if !emotional.Exists() {
		emotional = ling.Get("emotional_words")
	}
	sec := &models.Section{
		Title: "Linguistic Analysis",
		Icon:  "language",
		Fields: []models.Field{
			{Key: "Risk Level", Value: textOr(ling.Get("risk_level"), valueUnknown), Badge: badge(ling.Get("risk_level"))},
			{Key: "Suspicious Phrases", Value: textOr(ling.Get("suspicious_phrases"), valueNA)},
			{Key: "Emotional Language", Value: textOr(emotional, valueNA)},
			{Key: "Caps Ratio", Value: caps},
		},
	}
	for _, c := range []struct{ path, key string }{
		{"exclamation_marks", "Exclamation Marks"},
		{"question_marks", "Question Marks"},
		{"risk_score", "Risk Score"},
	} {
		if v := ling.Get(c.path); v.Type == gjson.Number {
			sec.Fields = append(sec.Fields, models.Field{Key: c.key, Value: intOr(v, valueNA)})
		}
	}
	return sec
}

func (b *sectionBuilder) sentimentSection() *models.Section {
	sent := b.doc.Get("analysis.sentiment")
	if !sent.IsObject() {
		return nil
	}
	if e := sent.Get("error"); e.Exists() && e.Type != gjson.Null && e.Type != gjson.False {
		return nil
	}
	label := sent.Get("sentiment")
	if !label.Exists() {
		label = sent.Get("sentiment_label")
	}
	return &models.Section{
		Title: "Sentiment Analysis",
		Icon:  "heart",
		Fields: []models.Field{
			{Key: "Sentiment", Value: textOr(label, valueUnknown), Badge: badge(label)},
			{Key: "Polarity", Value: fixed2(sent.Get("polarity"), valueNA)},
			{Key: "Subjectivity", Value: fixed2(sent.Get("subjectivity"), valueNA)},
			{Key: "Objectivity", Value: fixed2(sent.Get("objectivity"), valueNA)},
		},
	}
}

func (b *sectionBuilder) factCheckSection() *models.Section {
	fact := b.doc.Get("analysis.fact_check")
	if !fact.IsObject() {
		return nil
	}
	status := statusOf(fact)
	fields := []models.Field{
		{Key: "Status", Value: status, Badge: strings.ToLower(status)},
		{Key: "Claims Found", Value: intOr(fact.Get("claims_found"), "0")},
		{Key: "Has Fact Checks", Value: yesNo(fact.Get("has_fact_checks"))},
	}
	return &models.Section{Title: "Fact Check Results", Icon: "check-circle", Fields: appendError(fields, fact)}
}

func (b *sectionBuilder) newsSection() *models.Section {
	news := b.doc.Get("analysis.news_verification")
	if !news.IsObject() {
		return nil
	}
	articles := news.Get("total_articles")
	if !articles.Exists() {
		articles = news.Get("articles_found")
	}
	status := statusOf(news)
	fields := []models.Field{
		{Key: "Status", Value: status, Badge: strings.ToLower(status)},
		{Key: "Articles Found", Value: intOr(articles, "0")},
		{Key: "Reliable Sources", Value: intOr(news.Get("reliable_sources"), "0")},
		{Key: "Reliability Ratio", Value: percent1(news.Get("reliability_ratio").Float())},
	}
	return &models.Section{Title: "News Verification", Icon: "newspaper", Fields: appendError(fields, news)}
}

func statusOf(obj gjson.Result) string {
	if s := textOr(obj.Get("status"), ""); s != "" {
		return s
	}
	if e := obj.Get("error"); e.Exists() && e.Type != gjson.Null {
		return "error"
	}
	return valueUnknown
}

func appendError(fields []models.Field, obj gjson.Result) []models.Field {
	if e := obj.Get("error"); e.Type == gjson.String && e.String() != "" {
		fields = append(fields, models.Field{Key: "Error", Value: e.String()})
	}
	return fields
}

// ── Image ────────────────────────────────────────────────────────

func (b *sectionBuilder) technicalSection() *models.Section {
	tech := b.first("technical_analysis", "analysis.technical_analysis")
	if !tech.IsObject() {
		return nil
	}

	var fields []models.Field
	if pil := tech.Get("pil_analysis"); pil.IsObject() {
		size := valueUnknown
		if dims := pil.Get("size"); dims.IsArray() {
			size = dimensionsText(dims)
		}
		fields = append(fields,
			models.Field{Key: "Format", Value: textOr(pil.Get("format"), valueUnknown)},
			models.Field{Key: "Size", Value: size},
			models.Field{Key: "Mode", Value: textOr(pil.Get("mode"), valueUnknown)},
			models.Field{Key: "Has EXIF", Value: yesNo(pil.Get("has_exif"))},
		)
	}
	if cv := tech.Get("opencv_analysis"); cv.IsObject() && !cv.Get("error").Exists() {
		fields = append(fields,
			models.Field{Key: "Sharpness", Value: fixed2Set(cv.Get("sharpness"), valueNA)},
			models.Field{Key: "Brightness", Value: fixed2Set(cv.Get("brightness"), valueNA)},
			models.Field{Key: "Contrast", Value: fixed2Set(cv.Get("contrast"), valueNA)},
		)
	}
	fields = append(fields, flatTechnicalFields(tech, hasField(fields, "Sharpness"))...)

	// the flat shape reports a numeric quality score instead of a grade
	if quality := tech.Get("quality_assessment"); quality.Exists() || !tech.Get("quality_score").Exists() {
		fields = append(fields, models.Field{Key: "Quality Assessment", Value: textOr(quality, valueUnknown), Badge: badge(quality)})
	}

	return &models.Section{Title: "Technical Analysis", Icon: "cogs", Fields: appendError(fields, tech)}
}

// flatTechnicalFields reads the single-level technical_analysis object the
// analysis service sends: dimensions, channels, sharpness and quality_score.
func flatTechnicalFields(tech gjson.Result, haveSharpness bool) []models.Field {
	var fields []models.Field
	if dims := tech.Get("dimensions"); dims.Exists() && dims.Type != gjson.Null {
		fields = append(fields, models.Field{Key: "Dimensions", Value: dimensionsText(dims)})
	}
	if ch := tech.Get("channels"); ch.Type == gjson.Number {
		fields = append(fields, models.Field{Key: "Channels", Value: intOr(ch, valueNA)})
	}
	if sharp := tech.Get("sharpness"); sharp.Type == gjson.Number && !haveSharpness {
		fields = append(fields, models.Field{Key: "Sharpness", Value: fixed2(sharp, valueNA)})
	}
	if q := tech.Get("quality_score"); q.Type == gjson.Number {
		fields = append(fields, models.Field{Key: "Quality Score", Value: fixed2(q, valueNA)})
	}
	return fields
}

// dimensionsText accepts "WxH" strings and [w, h] arrays.
func dimensionsText(v gjson.Result) string {
	if !v.IsArray() {
		return textOr(v, valueUnknown)
	}
	parts := make([]string, 0, 2)
	for _, d := range v.Array() {
		parts = append(parts, d.String())
	}
	if len(parts) == 0 {
		return valueUnknown
	}
	return strings.Join(parts, "x")
}

func hasField(fields []models.Field, key string) bool {
	for _, f := range fields {
		if f.Key == key {
			return true
		}
	}
	return false
}

func (b *sectionBuilder) imagePropertiesSection() *models.Section {
	props := b.first("image_properties", "analysis.image_properties")
	if !props.IsObject() {
		return nil
	}
	dims := valueUnknown
	if w, h := props.Get("width"), props.Get("height"); w.Type == gjson.Number && h.Type == gjson.Number {
		dims = fmt.Sprintf("%dx%d", w.Int(), h.Int())
	}
	return &models.Section{
		Title: "Image Properties",
		Icon:  "image",
		Fields: []models.Field{
			{Key: "Format", Value: textOr(props.Get("format"), valueUnknown)},
			{Key: "Dimensions", Value: dims},
			{Key: "Mode", Value: textOr(props.Get("mode"), valueUnknown)},
		},
	}
}

// ── Video ────────────────────────────────────────────────────────

func (b *sectionBuilder) videoPropertiesSection() *models.Section {
	props := b.first("video_properties", "analysis.video_properties")
	if !props.IsObject() {
		return nil
	}
	duration := fixed2Set(props.Get("duration"), "")
	if duration == "" {
		duration = valueUnknown
	} else {
		duration += "s"
	}
	frameCount := valueUnknown
	if fc := props.Get("frame_count"); fc.Type == gjson.Number && fc.Int() != 0 {
		frameCount = fc.String()
	}
	return &models.Section{
		Title: "Video Properties",
		Icon:  "video",
		Fields: []models.Field{
			{Key: "Duration", Value: duration},
			{Key: "FPS", Value: fixed2Set(props.Get("fps"), valueUnknown)},
			{Key: "Frame Count", Value: frameCount},
		},
	}
}

func (b *sectionBuilder) frameSummarySection() *models.Section {
	analyzed := b.doc.Get("frames_analyzed").Int()
	if analyzed <= 0 {
		return nil
	}
	fields := []models.Field{
		{Key: "Total Frames Analyzed", Value: fmt.Sprint(analyzed)},
		{Key: "High Risk Frames", Value: intOr(b.doc.Get("high_risk_frames"), "0"), Badge: "high"},
		{Key: "Medium Risk Frames", Value: intOr(b.doc.Get("medium_risk_frames"), "0"), Badge: "medium"},
		{Key: "Low Risk Frames", Value: intOr(b.doc.Get("low_risk_frames"), "0"), Badge: "low"},
	}
	if frames := b.doc.Get("frame_analyses").Array(); len(frames) > MaxFrameDetails {
		fields = append(fields, models.Field{
			Key:   "Frame Details Shown",
			Value: fmt.Sprintf("%d of %d", MaxFrameDetails, len(frames)),
		})
	}
	return &models.Section{Title: "Frame Analysis Summary", Icon: "images", Fields: fields}
}

func (b *sectionBuilder) frameSections() []models.Section {
	frames := b.doc.Get("frame_analyses").Array()
	n := len(frames)
	if n > MaxFrameDetails {
		n = MaxFrameDetails
	}
	out := make([]models.Section, 0, n)
	for i, frame := range frames[:n] {
		risk := frame.Get("deepfake_risk")
		score := valueNA
		if s := frame.Get("deepfake_score"); s.Type == gjson.Number {
			score = percent1(clampScore(s.Float()))
		}
		out = append(out, models.Section{
			Title: fmt.Sprintf("Frame %d", i+1),
			Icon:  "microscope",
			Fields: []models.Field{
				{Key: "Risk Level", Value: textOr(risk, valueUnknown), Badge: badge(risk)},
				{Key: "Deepfake Score", Value: score},
				{Key: "Status", Value: textOr(frame.Get("status"), valueNA)},
			},
		})
	}
	return out
}

// ── helpers ──────────────────────────────────────────────────────

func firstText(obj gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := obj.Get(k); v.Type == gjson.String {
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

func badge(v gjson.Result) string {
	if v.Type != gjson.String {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(v.String()))
}

// KV is one flattened field, keyed by "<section title>.<field key>".
type KV struct {
	Key   string
	Value string
}

// Flatten serializes rendered sections into a flat key-value list in render order.
func Flatten(sections []models.Section) []KV {
	var out []KV
	for _, s := range sections {
		for _, f := range s.Fields {
			out = append(out, KV{Key: s.Title + "." + f.Key, Value: f.Value})
		}
	}
	return out
}
