package services

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cyberguard/models"
)

func TestValidateText(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"", false},
		{"   \n\t", false},
		{"123456789", false},
		{"  123456789  ", false},
		{"1234567890", true},
		{"ёжик в тумане", true},
	}
	for _, tt := range tests {
		err := ValidateText(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ValidateText(%q) = %v, want ok=%v", tt.in, err, tt.ok)
		}
		if err != nil && !IsValidation(err) {
			t.Errorf("ValidateText(%q) returned non-validation error %T", tt.in, err)
		}
	}
}

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name string
		kind models.Kind
		u    *Upload
		ok   bool
	}{
		{"nil", models.KindImage, nil, false},
		{"image ok", models.KindImage, &Upload{MIME: "image/jpeg", Size: MaxImageBytes}, true},
		{"image too big", models.KindImage, &Upload{MIME: "image/jpeg", Size: MaxImageBytes + 1}, false},
		{"image wrong type", models.KindImage, &Upload{MIME: "video/mp4", Size: 10}, false},
		{"video ok", models.KindVideo, &Upload{MIME: "video/mp4", Size: MaxVideoBytes}, true},
		{"video too big", models.KindVideo, &Upload{MIME: "video/mp4", Size: MaxVideoBytes + 1}, false},
		{"video upper mime", models.KindVideo, &Upload{MIME: "VIDEO/MP4", Size: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload(tt.kind, tt.u)
			if (err == nil) != tt.ok {
				t.Errorf("err = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestValidateUpload_SizeMessage(t *testing.T) {
	err := ValidateUpload(models.KindImage, &Upload{MIME: "image/png", Size: 11 << 20})
	if err == nil || !strings.Contains(err.Error(), "11 MB") || !strings.Contains(err.Error(), "10 MB") {
		t.Errorf("err = %v", err)
	}
}

func TestNewUpload_KeepsDeclaredType(t *testing.T) {
	u, err := NewUpload("a.bin", 3, "video/webm", bytes.NewReader([]byte("abc")))
	if err != nil {
		t.Fatal(err)
	}
	if u.MIME != "video/webm" {
		t.Errorf("MIME = %q", u.MIME)
	}
}

func TestNewUpload_SniffPreservesContent(t *testing.T) {
	data := append([]byte("GIF89a"), bytes.Repeat([]byte{0}, 5000)...)
	u, err := NewUpload("x", int64(len(data)), "application/octet-stream", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if u.MIME != "image/gif" {
		t.Errorf("MIME = %q", u.MIME)
	}
	got, _ := io.ReadAll(u.Reader)
	if !bytes.Equal(got, data) {
		t.Errorf("reader lost bytes: got %d, want %d", len(got), len(data))
	}
}

func TestNewFileUpload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pic.png")
	data := []byte("\x89PNG\r\n\x1a\n0000")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	u, err := NewFileUpload(path)
	if err != nil {
		t.Fatal(err)
	}
	defer u.Close()
	if u.Name != "pic.png" || u.Size != int64(len(data)) || u.MIME != "image/png" {
		t.Errorf("upload = %+v", u)
	}
	if err := ValidateUpload(models.KindImage, u); err != nil {
		t.Errorf("ValidateUpload = %v", err)
	}
}
