package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"cyberguard/models"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// ErrShareNotFound covers both unknown and expired share ids.
var ErrShareNotFound = errors.New("share not found or expired")

// ErrSharingDisabled is returned when no database is configured.
var ErrSharingDisabled = errors.New("sharing is not configured")

// SharedReport is a stored raw payload; it is re-rendered on every view so
// rule and threshold changes apply to old links too.
type SharedReport struct {
	ID        string
	Kind      models.Kind
	Payload   json.RawMessage
	CreatedAt time.Time
	ExpiresAt time.Time
}

type ShareStore struct {
	db  *sql.DB
	ttl time.Duration
}

func NewShareStore(db *sql.DB, ttl time.Duration) *ShareStore {
	return &ShareStore{db: db, ttl: ttl}
}

func (s *ShareStore) Enabled() bool {
	return s != nil && s.db != nil
}

func (s *ShareStore) Create(ctx context.Context, kind models.Kind, payload json.RawMessage) (*SharedReport, error) {
	if !s.Enabled() {
		return nil, ErrSharingDisabled
	}
	if !json.Valid(payload) {
		return nil, ErrMalformedPayload
	}
	now := time.Now().UTC()
	rep := &SharedReport{
		ID:        uuid.NewString(),
		Kind:      kind,
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO shared_reports (id, kind, payload, created_at, expires_at) VALUES ($1, $2, $3, $4, $5)`,
		rep.ID, string(kind), []byte(payload), rep.CreatedAt, rep.ExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert share: %w", err)
	}
	log.Printf("[SHARE] 🔗 Created %s (%s)", rep.ID, kind)
	return rep, nil
}

func (s *ShareStore) Get(ctx context.Context, id string) (*SharedReport, error) {
	if !s.Enabled() {
		return nil, ErrSharingDisabled
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrShareNotFound
	}
	rep := &SharedReport{ID: id}
	var kind string
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT kind, payload, created_at, expires_at FROM shared_reports WHERE id = $1 AND expires_at > NOW()`,
		id,
	).Scan(&kind, &payload, &rep.CreatedAt, &rep.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShareNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select share: %w", err)
	}
	rep.Kind = models.Kind(kind)
	rep.Payload = payload
	return rep, nil
}

// PruneExpired deletes expired shares and returns how many were removed.
func (s *ShareStore) PruneExpired(ctx context.Context) (int64, error) {
	if !s.Enabled() {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM shared_reports WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("prune shares: %w", err)
	}
	return res.RowsAffected()
}

// ScheduleCleanup registers PruneExpired on c with a standard 5-field cron
// schedule.
func (s *ShareStore) ScheduleCleanup(c *cron.Cron, schedule string) error {
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		n, err := s.PruneExpired(ctx)
		if err != nil {
			log.Printf("[SHARE] ⚠ Cleanup failed: %v", err)
			return
		}
		if n > 0 {
			log.Printf("[SHARE] 🧹 Pruned %d expired shares", n)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule share cleanup %q: %w", schedule, err)
	}
	return nil
}
