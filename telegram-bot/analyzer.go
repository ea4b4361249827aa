package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"cyberguard/models"
	"cyberguard/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// analysisRequest is everything needed to (re)run one submission.
type analysisRequest struct {
	Kind     models.Kind
	Text     string
	FileID   string
	FileName string
	MIME     string
	Size     int64
}

// requestFromMessage picks the analysable content out of a message. Photos
// use the largest size Telegram offers.
func requestFromMessage(msg *tgbotapi.Message) (analysisRequest, bool) {
	switch {
	case len(msg.Photo) > 0:
		best := msg.Photo[0]
		for _, p := range msg.Photo[1:] {
			if p.Width*p.Height > best.Width*best.Height {
				best = p
			}
		}
		return analysisRequest{
			Kind:     models.KindImage,
			FileID:   best.FileID,
			FileName: "photo.jpg",
			MIME:     "image/jpeg",
			Size:     int64(best.FileSize),
		}, true

	case msg.Video != nil:
		return analysisRequest{
			Kind:     models.KindVideo,
			FileID:   msg.Video.FileID,
			FileName: fileNameOr(msg.Video.FileName, "video.mp4"),
			MIME:     msg.Video.MimeType,
			Size:     int64(msg.Video.FileSize),
		}, true

	case msg.Document != nil:
		doc := msg.Document
		kind := models.KindImage
		switch {
		case strings.HasPrefix(doc.MimeType, "video/"):
			kind = models.KindVideo
		case strings.HasPrefix(doc.MimeType, "image/"):
		default:
			return analysisRequest{}, false
		}
		return analysisRequest{
			Kind:     kind,
			FileID:   doc.FileID,
			FileName: fileNameOr(doc.FileName, "upload"),
			MIME:     doc.MimeType,
			Size:     int64(doc.FileSize),
		}, true
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		text = strings.TrimSpace(msg.Caption)
	}
	if text == "" {
		return analysisRequest{}, false
	}
	return analysisRequest{Kind: models.KindText, Text: text}, true
}

func fileNameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

// run submits the request and returns the raw backend payload. Media is
// streamed from Telegram's file server straight into the multipart body.
func (req analysisRequest) run(ctx context.Context) (json.RawMessage, error) {
	if req.Kind == models.KindText {
		return client.AnalyzeText(ctx, req.Text)
	}
	// fail fast on oversized files before downloading anything
	if max := services.MaxUploadBytes(req.Kind); req.Size > max {
		return nil, &services.ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("File too large (%s). Maximum size is %s", services.FormatFileSize(req.Size), services.FormatFileSize(max)),
		}
	}

	url, err := bot.GetFileDirectURL(req.FileID)
	if err != nil {
		return nil, fmt.Errorf("resolve telegram file: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("download telegram file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download telegram file: status %d", resp.StatusCode)
	}

	size := req.Size
	if size == 0 {
		size = resp.ContentLength
	}
	upload, err := services.NewUpload(req.FileName, size, req.MIME, resp.Body)
	if err != nil {
		return nil, err
	}
	return client.Analyze(ctx, req.Kind, "", upload)
}
