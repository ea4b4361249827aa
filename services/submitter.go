package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"cyberguard/models"
)

// ErrCancelled is the cancel cause of a request stopped on the user's demand.
var ErrCancelled = errors.New("cancelled by user")

type slotKey struct {
	owner string
	kind  models.Kind
}

type slot struct {
	seq    uint64
	cancel context.CancelCauseFunc
}

// Submitter allows at most one in-flight request per (owner, kind). Starting
// a new one supersedes the previous; different kinds run independently.
type Submitter struct {
	Timeout time.Duration
	Metrics *Metrics

	mu     sync.Mutex
	seq    uint64
	active map[slotKey]*slot
}

func NewSubmitter(timeout time.Duration) *Submitter {
	return &Submitter{Timeout: timeout, active: map[slotKey]*slot{}}
}

// Begin cancels any in-flight request for (owner, kind) with ErrSuperseded and
// returns a context bounded by the submitter timeout. release must be called
// when the request finishes, whatever its outcome.
func (s *Submitter) Begin(parent context.Context, owner string, kind models.Kind) (ctx context.Context, release func()) {
	ctx, cancel := context.WithCancelCause(parent)
	var stopTimer context.CancelFunc = func() {}
	if s.Timeout > 0 {
		ctx, stopTimer = context.WithTimeoutCause(ctx, s.Timeout, context.DeadlineExceeded)
	}

	key := slotKey{owner, kind}
	s.mu.Lock()
	if s.active == nil {
		s.active = map[slotKey]*slot{}
	}
	if prev, ok := s.active[key]; ok {
		prev.cancel(ErrSuperseded)
		s.Metrics.observeSuperseded(kind)
		log.Printf("[SUBMIT] ⏭ %s/%s superseded", owner, kind)
	}
	s.seq++
	mine := &slot{seq: s.seq, cancel: cancel}
	s.active[key] = mine
	s.mu.Unlock()

	var once sync.Once
	release = func() {
		once.Do(func() {
			s.mu.Lock()
			if cur, ok := s.active[key]; ok && cur.seq == mine.seq {
				delete(s.active, key)
			}
			s.mu.Unlock()
			stopTimer()
			cancel(context.Canceled)
		})
	}
	return ctx, release
}

// Busy reports whether a request for (owner, kind) is in flight; front ends
// disable the matching trigger while it is.
func (s *Submitter) Busy(owner string, kind models.Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[slotKey{owner, kind}]
	return ok
}

// Cancel stops every in-flight request of owner. It reports whether anything
// was running.
func (s *Submitter) Cancel(owner string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for key, sl := range s.active {
		if key.owner == owner {
			sl.cancel(ErrCancelled)
			delete(s.active, key)
			found = true
		}
	}
	return found
}

// Superseded reports whether ctx ended because a newer request replaced it.
// Such requests must not publish their result.
func Superseded(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), ErrSuperseded)
}
