package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"cyberguard/models"
)

// StatusCache is an optional read-through cache for GET /api/status.
type StatusCache interface {
	GetStatus(ctx context.Context) (*models.Status, bool)
	SetStatus(ctx context.Context, st *models.Status)
}

// Client talks to the analysis backend. It performs no retries.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Limits  *RateLimits
	Cache   StatusCache
}

// NewClient builds a client for baseURL. Deadlines come from the request
// context, so the HTTP client itself has no timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{},
		Limits:  NewRateLimits(),
	}
}

// Analyze dispatches to the endpoint for kind. text is used for KindText,
// upload for the media kinds.
func (c *Client) Analyze(ctx context.Context, kind models.Kind, text string, upload *Upload) (json.RawMessage, error) {
	switch kind {
	case models.KindText:
		return c.AnalyzeText(ctx, text)
	case models.KindImage:
		return c.AnalyzeImage(ctx, upload)
	case models.KindVideo:
		return c.AnalyzeVideo(ctx, upload)
	default:
		return nil, fmt.Errorf("analyze: unknown kind %q", kind)
	}
}

func (c *Client) AnalyzeText(ctx context.Context, text string) (json.RawMessage, error) {
	if err := ValidateText(text); err != nil {
		return nil, err
	}
	log.Printf("[CLIENT] 📤 Text analysis (%d chars)", len([]rune(text)))
	return c.postMultipart(ctx, "/api/analyze-text", func(w *multipart.Writer) error {
		return w.WriteField("text", text)
	})
}

func (c *Client) AnalyzeImage(ctx context.Context, u *Upload) (json.RawMessage, error) {
	return c.analyzeMedia(ctx, models.KindImage, "/api/analyze-image", u)
}

func (c *Client) AnalyzeVideo(ctx context.Context, u *Upload) (json.RawMessage, error) {
	return c.analyzeMedia(ctx, models.KindVideo, "/api/analyze-video", u)
}

func (c *Client) analyzeMedia(ctx context.Context, kind models.Kind, path string, u *Upload) (json.RawMessage, error) {
	if err := ValidateUpload(kind, u); err != nil {
		return nil, err
	}
	log.Printf("[CLIENT] 📤 %s analysis: %s (%s, %s)", capitalize(string(kind)), u.Name, u.MIME, FormatFileSize(u.Size))
	return c.postMultipart(ctx, path, func(w *multipart.Writer) error {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(u.Name)))
		h.Set("Content-Type", u.MIME)
		part, err := w.CreatePart(h)
		if err != nil {
			return err
		}
		_, err = io.Copy(part, u.Reader)
		return err
	})
}

// Status fetches backend capability flags, served from the cache when fresh.
func (c *Client) Status(ctx context.Context) (*models.Status, error) {
	if c.Cache != nil {
		if st, ok := c.Cache.GetStatus(ctx); ok {
			return st, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/status", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	body, err := c.do(req, "status")
	if err != nil {
		return nil, err
	}

	var st models.Status
	if err := json.Unmarshal(body, &st); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	if c.Cache != nil {
		c.Cache.SetStatus(ctx, &st)
	}
	return &st, nil
}

// postMultipart streams the form body through a pipe so large videos are
// never buffered in memory.
func (c *Client) postMultipart(ctx context.Context, path string, fill func(*multipart.Writer) error) (json.RawMessage, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := fill(mw)
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, pr)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req, strings.TrimPrefix(path, "/api/"))
	pr.Close()
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

func (c *Client) do(req *http.Request, endpoint string) ([]byte, error) {
	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		log.Printf("[CLIENT] ❌ %s: %v", endpoint, err)
		return nil, fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()
	c.Limits.Update(endpoint, resp)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s read body: %w", endpoint, err)
	}
	log.Printf("[CLIENT] ✓ %s status %d (%.2fs, %d bytes)", endpoint, resp.StatusCode, time.Since(start).Seconds(), len(body))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apiError(resp.StatusCode, body)
	}
	return body, nil
}

// apiError extracts the JSON "detail" message when the body carries one.
func apiError(status int, body []byte) *APIError {
	var payload struct {
		Detail any `json:"detail"`
	}
	e := &APIError{Status: status}
	if json.Unmarshal(body, &payload) != nil {
		return e
	}
	switch d := payload.Detail.(type) {
	case string:
		e.Detail = d
	case nil:
	default:
		if raw, err := json.Marshal(d); err == nil {
			e.Detail = string(raw)
		}
	}
	return e
}

func escapeQuotes(s string) string {
	return strings.NewReplacer("\\", "\\\\", `"`, "\\\"").Replace(s)
}

// queryPath joins path and non-empty query values.
func queryPath(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
