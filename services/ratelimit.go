package services

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimitInfo holds the latest rate limit state reported by one backend endpoint.
type RateLimitInfo struct {
	Endpoint string `json:"endpoint"`

	Limit     int    `json:"limit"`     // max per window
	Remaining int    `json:"remaining"` // left in window
	Reset     string `json:"reset"`     // e.g. "60" or "1m0s"
	ResetAt   *int64 `json:"reset_at"`  // unix ms, if parseable

	Throttled  bool   `json:"throttled"` // true if last response was 429
	StatusCode int    `json:"status_code"`
	UpdatedAt  int64  `json:"updated_at"` // unix ms
	UpdatedAgo string `json:"updated_ago"`
}

// RateLimits remembers the last rate-limit headers seen per endpoint.
type RateLimits struct {
	mu    sync.RWMutex
	store map[string]*RateLimitInfo
	now   func() time.Time
}

func NewRateLimits() *RateLimits {
	return &RateLimits{store: map[string]*RateLimitInfo{}, now: time.Now}
}

// Update reads rate-limit headers from a backend response. Responses without
// any rate-limit header and without a 429 are ignored.
func (rl *RateLimits) Update(endpoint string, resp *http.Response) {
	if rl == nil || resp == nil {
		return
	}

	now := rl.now()
	info := &RateLimitInfo{
		Endpoint:   endpoint,
		StatusCode: resp.StatusCode,
		Throttled:  resp.StatusCode == http.StatusTooManyRequests,
		UpdatedAt:  now.UnixMilli(),
		Limit:      headerInt(resp, "X-Ratelimit-Limit"),
		Remaining:  headerInt(resp, "X-Ratelimit-Remaining"),
		Reset:      resp.Header.Get("X-Ratelimit-Reset"),
	}
	if info.Reset == "" {
		info.Reset = resp.Header.Get("Retry-After")
	}
	if info.Limit < 0 && info.Remaining < 0 && info.Reset == "" && !info.Throttled {
		return
	}

	if info.Reset != "" {
		if d, ok := parseReset(info.Reset); ok {
			t := now.Add(d).UnixMilli()
			info.ResetAt = &t
		}
	}

	rl.mu.Lock()
	rl.store[endpoint] = info
	rl.mu.Unlock()
}

// Snapshot returns a copy of all stored rate limit info.
func (rl *RateLimits) Snapshot() map[string]*RateLimitInfo {
	out := map[string]*RateLimitInfo{}
	if rl == nil {
		return out
	}
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	now := rl.now()
	for k, v := range rl.store {
		cp := *v
		ago := now.Sub(time.UnixMilli(v.UpdatedAt))
		switch {
		case ago < time.Minute:
			cp.UpdatedAgo = strconv.Itoa(int(ago.Seconds())) + "s ago"
		default:
			cp.UpdatedAgo = strconv.Itoa(int(ago.Minutes())) + "m ago"
		}
		out[k] = &cp
	}
	return out
}

// parseReset accepts either delta seconds or a Go duration string.
func parseReset(v string) (time.Duration, bool) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, true
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d, true
	}
	return 0, false
}

func headerInt(resp *http.Response, key string) int {
	v := resp.Header.Get(key)
	if v == "" {
		return -1 // -1 = not provided
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}
