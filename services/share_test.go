package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"cyberguard/models"

	"github.com/robfig/cron/v3"
)

func TestShareStore_Disabled(t *testing.T) {
	s := NewShareStore(nil, time.Hour)
	ctx := context.Background()

	if s.Enabled() {
		t.Fatal("store without db should be disabled")
	}
	if _, err := s.Create(ctx, models.KindText, []byte(`{}`)); !errors.Is(err, ErrSharingDisabled) {
		t.Errorf("Create err = %v", err)
	}
	if _, err := s.Get(ctx, "x"); !errors.Is(err, ErrSharingDisabled) {
		t.Errorf("Get err = %v", err)
	}
	if n, err := s.PruneExpired(ctx); n != 0 || err != nil {
		t.Errorf("PruneExpired = %d, %v", n, err)
	}
	var nilStore *ShareStore
	if nilStore.Enabled() {
		t.Error("nil store should be disabled")
	}
}

func TestShareStore_ScheduleCleanup(t *testing.T) {
	s := NewShareStore(nil, time.Hour)
	c := cron.New()
	if err := s.ScheduleCleanup(c, "0 * * * *"); err != nil {
		t.Errorf("valid schedule: %v", err)
	}
	if err := s.ScheduleCleanup(c, "every tuesday"); err == nil {
		t.Error("invalid schedule should fail")
	}
	if got := len(c.Entries()); got != 1 {
		t.Errorf("entries = %d, want 1", got)
	}
}
