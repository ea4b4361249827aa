package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"cyberguard/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSubmitter_Supersede(t *testing.T) {
	s := NewSubmitter(time.Minute)
	s.Metrics = NewMetrics(nil)

	ctx1, release1 := s.Begin(context.Background(), "alice", models.KindText)
	ctx2, release2 := s.Begin(context.Background(), "alice", models.KindText)

	select {
	case <-ctx1.Done():
	case <-time.After(time.Second):
		t.Fatal("first request was not cancelled")
	}
	if !Superseded(ctx1) {
		t.Errorf("cause = %v, want ErrSuperseded", context.Cause(ctx1))
	}
	if ctx2.Err() != nil {
		t.Fatal("second request should still run")
	}
	if _, ok := NoticeFor(ctx1, ctx1.Err()); ok {
		t.Error("superseded request must not produce a notice")
	}

	release1()
	if !s.Busy("alice", models.KindText) {
		t.Error("releasing the stale request must not free the newer slot")
	}
	release2()
	release2()
	if s.Busy("alice", models.KindText) {
		t.Error("slot should be free after release")
	}
	if got := testutil.ToFloat64(s.Metrics.superseded.WithLabelValues("text")); got != 1 {
		t.Errorf("superseded_total = %v, want 1", got)
	}
}

func TestSubmitter_KindsIndependent(t *testing.T) {
	s := NewSubmitter(time.Minute)
	textCtx, releaseText := s.Begin(context.Background(), "bob", models.KindText)
	defer releaseText()
	_, releaseImage := s.Begin(context.Background(), "bob", models.KindImage)
	defer releaseImage()
	_, releaseOther := s.Begin(context.Background(), "carol", models.KindText)
	defer releaseOther()

	if textCtx.Err() != nil {
		t.Error("text request cancelled by an image or another owner")
	}
	if !s.Busy("bob", models.KindText) || !s.Busy("bob", models.KindImage) {
		t.Error("both kinds should be busy")
	}
	if s.Busy("bob", models.KindVideo) {
		t.Error("video should be idle")
	}
}

func TestSubmitter_Timeout(t *testing.T) {
	s := NewSubmitter(20 * time.Millisecond)
	ctx, release := s.Begin(context.Background(), "dave", models.KindVideo)
	defer release()

	<-ctx.Done()
	if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline", ctx.Err())
	}
	n, ok := NoticeFor(ctx, ctx.Err())
	if !ok || n.Message != msgTimeout {
		t.Errorf("notice = %+v, %v", n, ok)
	}
	if got := Outcome(ctx, ctx.Err()); got != OutcomeTimeout {
		t.Errorf("outcome = %s", got)
	}
}

func TestSubmitter_Cancel(t *testing.T) {
	s := NewSubmitter(0)
	ctx, release := s.Begin(context.Background(), "erin", models.KindText)
	defer release()

	if !s.Cancel("erin") {
		t.Fatal("Cancel reported nothing running")
	}
	<-ctx.Done()
	if !errors.Is(context.Cause(ctx), ErrCancelled) {
		t.Errorf("cause = %v", context.Cause(ctx))
	}
	if n, ok := NoticeFor(ctx, ctx.Err()); !ok || n.Message != msgCancelled {
		t.Errorf("notice = %+v", n)
	}
	if s.Cancel("erin") {
		t.Error("second Cancel should find nothing")
	}
}

func TestNoticeFor(t *testing.T) {
	tests := []struct {
		err   error
		level models.NoticeLevel
		msg   string
	}{
		{&ValidationError{Message: "Please enter some text to analyze"}, models.NoticeWarning, "Please enter some text to analyze"},
		{&APIError{Status: 500}, models.NoticeError, "Server error (500)"},
		{ErrMalformedPayload, models.NoticeError, msgMalformed},
		{errors.New("dial tcp: refused"), models.NoticeError, msgNetwork},
	}
	for _, tt := range tests {
		n, ok := NoticeFor(context.Background(), tt.err)
		if !ok || n.Level != tt.level || n.Message != tt.msg {
			t.Errorf("NoticeFor(%v) = %+v, %v", tt.err, n, ok)
		}
	}
	if _, ok := NoticeFor(context.Background(), nil); ok {
		t.Error("nil error should not produce a notice")
	}
}
