package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"cyberguard/config"
	"cyberguard/models"
	"cyberguard/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
)

var (
	cfg       *config.Config
	bot       *tgbotapi.BotAPI
	client    *services.Client
	history   *services.HistoryClient
	renderer  *services.Renderer
	submitter *services.Submitter

	// Text submissions kept for the re-check button (chat:msg -> request)
	rescanMu sync.Mutex
	rescans  = map[string]analysisRequest{}
)

const maxRescans = 500

func main() {
	// In Docker env vars are injected via env_file; locally the root .env is
	// one directory up.
	if os.Getenv("TELEGRAM_TOKEN") == "" {
		_ = godotenv.Load("../.env")
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatalf("[bot] ❌ Config error: %v", err)
	}
	if cfg.TelegramToken == "" {
		log.Fatal("[bot] TELEGRAM_TOKEN is not set")
	}

	rules, err := services.NewRuleStore(cfg.VerdictRulesPath)
	if err != nil {
		log.Fatalf("[bot] ❌ Verdict rules error: %v", err)
	}
	client = services.NewClient(cfg.APIBase)
	history = services.NewHistoryClient(client)
	renderer = services.NewRenderer(services.Thresholds{Low: cfg.RiskLowThreshold, High: cfg.RiskHighThreshold}, rules)
	submitter = services.NewSubmitter(cfg.RequestTimeout)

	bot, err = tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatalf("[bot] Init error: %v", err)
	}
	log.Printf("[bot] Running as @%s | API: %s", bot.Self.UserName, cfg.APIBase)

	if webhookURL := os.Getenv("WEBHOOK_URL"); webhookURL != "" {
		runWebhook(webhookURL)
	} else {
		runPolling()
	}
}

// ── Polling mode (dev / no public URL) ───────────────────────────

func runPolling() {
	if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: false}); err != nil {
		log.Printf("[bot] DeleteWebhook: %v", err)
	}
	log.Println("[bot] Mode: POLLING")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	dispatch(bot.GetUpdatesChan(u))
}

// ── Webhook mode (production) ─────────────────────────────────────

func runWebhook(baseURL string) {
	port := os.Getenv("WEBHOOK_PORT")
	if port == "" {
		port = "8443"
	}

	// Path contains bot token and acts as the secret
	path := "/" + bot.Token
	fullURL := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(fullURL)
	if err != nil {
		log.Fatalf("[bot] NewWebhook: %v", err)
	}
	if _, err := bot.Request(wh); err != nil {
		log.Fatalf("[bot] Set webhook: %v", err)
	}
	info, err := bot.GetWebhookInfo()
	if err != nil {
		log.Fatalf("[bot] GetWebhookInfo: %v", err)
	}
	if info.LastErrorDate != 0 {
		log.Printf("[bot] ⚠ Last webhook error: %s", info.LastErrorMessage)
	}

	log.Printf("[bot] Mode: WEBHOOK | URL: %s | Port: :%s", fullURL, port)
	updates := bot.ListenForWebhook(path)

	go func() {
		if err := http.ListenAndServe(":"+port, nil); err != nil {
			log.Fatalf("[bot] HTTP server died: %v", err)
		}
	}()
	dispatch(updates)
}

func dispatch(updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		if update.Message != nil {
			go handleMessage(update.Message)
		} else if update.CallbackQuery != nil {
			go handleCallback(update.CallbackQuery)
		}
	}
}

// ── Message handler ──────────────────────────────────────────────

func handleMessage(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		handleCommand(msg)
		return
	}

	req, ok := requestFromMessage(msg)
	if !ok {
		send(chatID, unsupportedText())
		return
	}
	startAnalysis(chatID, req, forwardSource(msg))
}

func handleCommand(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		send(chatID, startText())
	case "help":
		send(chatID, helpText())
	case "cancel":
		if !submitter.Cancel(owner(chatID)) {
			send(chatID, "Nothing to cancel.")
		}
	case "status":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		st, err := client.Status(ctx)
		send(chatID, FormatStatus(services.StatusLabel(st, err), st))
	case "history":
		showHistory(chatID, strings.TrimSpace(msg.CommandArguments()))
	default:
		send(chatID, "Unknown command. Try /help.")
	}
}

func showHistory(chatID int64, arg string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if arg == "" {
		entries, err := history.List(ctx, models.HistoryFilter{Limit: 20})
		if err != nil {
			sendError(ctx, chatID, err)
			return
		}
		send(chatID, FormatHistory(entries))
		return
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(arg, "#"), 10, 64)
	if err != nil {
		send(chatID, "Usage: <code>/history &lt;id&gt;</code>")
		return
	}
	entry, err := history.Get(ctx, id)
	if err != nil {
		sendError(ctx, chatID, err)
		return
	}
	view, err := renderer.Render(entry.Kind(), entry.Results)
	if err != nil {
		sendError(ctx, chatID, err)
		return
	}
	send(chatID, FormatView(view, ""))
}

// forwardSource labels forwarded messages with where they came from.
func forwardSource(msg *tgbotapi.Message) string {
	switch {
	case msg.ForwardFromChat != nil:
		chat := msg.ForwardFromChat
		if chat.UserName != "" {
			return fmt.Sprintf(`<a href="https://t.me/%s">%s</a>`, chat.UserName, escHTML(fileNameOr(chat.Title, chat.UserName)))
		}
		return escHTML(chat.Title)
	case msg.ForwardFrom != nil:
		u := msg.ForwardFrom
		if u.UserName != "" {
			return fmt.Sprintf(`<a href="https://t.me/%s">@%s</a>`, u.UserName, escHTML(u.UserName))
		}
		return escHTML(strings.TrimSpace(u.FirstName + " " + u.LastName))
	case msg.ForwardSenderName != "":
		return escHTML(msg.ForwardSenderName)
	}
	return ""
}

func owner(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

// ── Analysis runner ──────────────────────────────────────────────

func startAnalysis(chatID int64, req analysisRequest, sourceLabel string) {
	initMsg := sendAndGet(chatID, FormatProgress(req.Kind))
	if initMsg == nil {
		return
	}
	runAnalysis(chatID, initMsg.MessageID, req, sourceLabel)
}

// runAnalysis owns the (chat, kind) slot for the duration of the request; a
// newer submission of the same kind supersedes it.
func runAnalysis(chatID int64, msgID int, req analysisRequest, sourceLabel string) {
	ctx, release := submitter.Begin(context.Background(), owner(chatID), req.Kind)
	defer release()

	raw, err := req.run(ctx)
	var view *models.View
	if err == nil {
		view, err = renderer.Render(req.Kind, raw)
	}
	if err == nil && services.Superseded(ctx) {
		err = services.ErrSuperseded
	}

	if err != nil {
		notice, show := services.NoticeFor(ctx, err)
		if !show {
			edit(chatID, msgID, "⏭ <i>Replaced by a newer request.</i>")
			return
		}
		log.Printf("[bot] ⚠ %s analysis failed for chat %d: %v", req.Kind, chatID, err)
		edit(chatID, msgID, FormatNotice(notice))
		return
	}

	var rescanKey string
	if req.Kind == models.KindText {
		rescanKey = rememberRescan(chatID, msgID, req)
	}
	shareURL := requestShareURL(req.Kind, raw)
	editWithKeyboard(chatID, msgID, FormatView(view, sourceLabel), GetResultKeyboard(shareURL, rescanKey))
}

func rememberRescan(chatID int64, msgID int, req analysisRequest) string {
	key := fmt.Sprintf("%d:%d", chatID, msgID)
	rescanMu.Lock()
	defer rescanMu.Unlock()
	if len(rescans) >= maxRescans {
		for k := range rescans {
			delete(rescans, k)
			break
		}
	}
	rescans[key] = req
	return key
}

// ── Callback handler ─────────────────────────────────────────────

func handleCallback(cb *tgbotapi.CallbackQuery) {
	key, ok := strings.CutPrefix(cb.Data, "rescan:")
	if !ok || cb.Message == nil {
		return
	}

	rescanMu.Lock()
	req, found := rescans[key]
	rescanMu.Unlock()
	if !found {
		bot.Request(tgbotapi.NewCallback(cb.ID, "❌ Nothing to re-check")) //nolint:errcheck
		return
	}

	bot.Request(tgbotapi.NewCallback(cb.ID, "🔄 Re-checking...")) //nolint:errcheck
	chatID := cb.Message.Chat.ID
	msgID := cb.Message.MessageID
	edit(chatID, msgID, FormatProgress(req.Kind))
	runAnalysis(chatID, msgID, req, "")
}

// ── Share helper ─────────────────────────────────────────────────

// requestShareURL stores the payload on the viewer and returns its public
// link, or "" when sharing is unavailable.
func requestShareURL(kind models.Kind, raw json.RawMessage) string {
	body, err := json.Marshal(map[string]any{"kind": kind, "payload": raw})
	if err != nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(cfg.PublicBaseURL, "/")+"/api/share", bytes.NewReader(body))
	if err != nil {
		return ""
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Printf("[bot] share error: %v", err)
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var res struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return ""
	}
	return res.URL
}

// ── Telegram helpers ─────────────────────────────────────────────

func send(chatID int64, text string) {
	sendAndGet(chatID, text)
}

func sendAndGet(chatID int64, text string) *tgbotapi.Message {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	sent, err := bot.Send(msg)
	if err != nil {
		log.Printf("[bot] send error: %v", err)
		return nil
	}
	return &sent
}

func sendError(ctx context.Context, chatID int64, err error) {
	notice, show := services.NoticeFor(ctx, err)
	if !show {
		return
	}
	var ae *services.APIError
	if !errors.As(err, &ae) {
		log.Printf("[bot] ⚠ chat %d: %v", chatID, err)
	}
	send(chatID, FormatNotice(notice))
}

func edit(chatID int64, msgID int, text string) {
	ec := tgbotapi.NewEditMessageText(chatID, msgID, text)
	ec.ParseMode = tgbotapi.ModeHTML
	ec.DisableWebPagePreview = true
	if _, err := bot.Send(ec); err != nil {
		log.Printf("[bot] edit error: %v", err)
	}
}

func editWithKeyboard(chatID int64, msgID int, text string, kb tgbotapi.InlineKeyboardMarkup) {
	ec := tgbotapi.NewEditMessageText(chatID, msgID, text)
	ec.ParseMode = tgbotapi.ModeHTML
	ec.DisableWebPagePreview = true
	if len(kb.InlineKeyboard) > 0 {
		ec.ReplyMarkup = &kb
	}
	if _, err := bot.Send(ec); err != nil {
		log.Printf("[bot] edit error: %v", err)
	}
}

// ── Texts ────────────────────────────────────────────────────────

func unsupportedText() string {
	return `🙏 <b>Send text, a photo or a video to analyze.</b>

Other message types are not supported yet.`
}

func startText() string {
	return `🛡 <b>CyberGuard</b>

I check content for <b>misinformation</b> and manipulated media.

<b>How to use:</b>
• Send or forward a <b>text</b> (at least 10 characters)
• Send a <b>photo</b> or image file (up to 10 MB)
• Send a <b>video</b> (up to 100 MB)

<b>Commands:</b>
/status - backend availability
/history - recent analyses
/cancel - stop the current analysis
/help - help`
}

func helpText() string {
	return `📖 <b>Help</b>

A new message of the same type replaces the analysis still running for it.

<b>The result includes:</b>
• Overall risk (Low / Moderate / High)
• Gemini AI verdict and confidence
• Linguistic, sentiment and fact-check details for text
• Deepfake and manipulation checks for images and videos
• Recommendations

<b>Commands:</b>
/status - backend availability
/history - recent analyses, <code>/history &lt;id&gt;</code> to open one
/cancel - stop the analysis
/start - main menu`
}
