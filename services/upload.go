package services

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"cyberguard/models"

	"github.com/gabriel-vasile/mimetype"
)

const (
	MinTextLength = 10

	MaxImageBytes int64 = 10 << 20
	MaxVideoBytes int64 = 100 << 20
)

// MaxUploadBytes returns the size cap for a media kind, or 0 for text.
func MaxUploadBytes(kind models.Kind) int64 {
	switch kind {
	case models.KindImage:
		return MaxImageBytes
	case models.KindVideo:
		return MaxVideoBytes
	default:
		return 0
	}
}

// Upload is a media file waiting to be submitted.
type Upload struct {
	Name   string
	Size   int64
	MIME   string
	Reader io.Reader

	closer io.Closer
}

func (u *Upload) Close() error {
	if u.closer == nil {
		return nil
	}
	return u.closer.Close()
}

// NewFileUpload opens a local file and sniffs its MIME type from content.
func NewFileUpload(path string) (*Upload, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("detect mime type: %w", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat upload: %w", err)
	}
	return &Upload{
		Name:   filepath.Base(path),
		Size:   info.Size(),
		MIME:   mt.String(),
		Reader: f,
		closer: f,
	}, nil
}

// NewUpload wraps an already-open stream. When declared is empty or generic,
// the MIME type is sniffed from the stream head.
func NewUpload(name string, size int64, declared string, r io.Reader) (*Upload, error) {
	u := &Upload{Name: name, Size: size, MIME: declared, Reader: r}
	if declared != "" && declared != "application/octet-stream" {
		return u, nil
	}
	head := make([]byte, 3072)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("read upload head: %w", err)
	}
	head = head[:n]
	u.MIME = mimetype.Detect(head).String()
	u.Reader = io.MultiReader(bytes.NewReader(head), r)
	return u, nil
}

// ValidateText rejects empty or too-short input. Length counts characters
// after trimming.
func ValidateText(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return &ValidationError{Field: "text", Message: "Please enter some text to analyze"}
	}
	if utf8.RuneCountInString(trimmed) < MinTextLength {
		return &ValidationError{
			Field:   "text",
			Message: fmt.Sprintf("Text must be at least %d characters long", MinTextLength),
		}
	}
	return nil
}

// ValidateUpload checks MIME prefix and size cap for an image or video.
func ValidateUpload(kind models.Kind, u *Upload) error {
	if u == nil {
		return &ValidationError{Field: "file", Message: fmt.Sprintf("Please select a %s file", kind)}
	}
	prefix := string(kind) + "/"
	if !strings.HasPrefix(strings.ToLower(u.MIME), prefix) {
		return &ValidationError{Field: "file", Message: fmt.Sprintf("Please select a valid %s file", kind)}
	}
	if max := MaxUploadBytes(kind); u.Size > max {
		return &ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("%s file too large (%s). Maximum size is %s", capitalize(string(kind)), FormatFileSize(u.Size), FormatFileSize(max)),
		}
	}
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
