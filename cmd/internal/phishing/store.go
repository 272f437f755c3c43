package phishing

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Click is one recorded visit of a tracking link.
type Click struct {
	ID        string
	Email     string
	ClickedAt time.Time
	UserAgent string
	IP        net.IP
}

// ClickStore persists clicks.
type ClickStore interface {
	RecordClick(ctx context.Context, c Click) (Click, error)
}

// PostgresClickStore writes to the phishing_clicks table.
// The pgx pool is owned by the caller.
type PostgresClickStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresClickStore constructs a PostgresClickStore for schema.table phishing_clicks.
func NewPostgresClickStore(pool *pgxpool.Pool, schema string) (*PostgresClickStore, error) {
	if pool == nil {
		return nil, errors.New("phishing: nil pool")
	}
	if schema == "" {
		schema = "public"
	}
	return &PostgresClickStore{
		pool:  pool,
		table: pgx.Identifier{schema, "phishing_clicks"}.Sanitize(),
	}, nil
}

func (s *PostgresClickStore) RecordClick(ctx context.Context, c Click) (Click, error) {
	c = fillClick(c)

	var ip any
	if c.IP != nil {
		ip = c.IP.String()
	}
	var ua any
	if c.UserAgent != "" {
		ua = c.UserAgent
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+s.table+` (id, email, clicked_at, user_agent, ip)
		 VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Email, c.ClickedAt, ua, ip,
	)
	if err != nil {
		return Click{}, err
	}
	return c, nil
}

// MemoryClickStore keeps clicks in memory (development and tests).
type MemoryClickStore struct {
	mu     sync.Mutex
	clicks []Click
}

// NewMemoryClickStore returns an empty MemoryClickStore.
func NewMemoryClickStore() *MemoryClickStore { return &MemoryClickStore{} }

func (s *MemoryClickStore) RecordClick(ctx context.Context, c Click) (Click, error) {
	if err := ctx.Err(); err != nil {
		return Click{}, err
	}
	c = fillClick(c)

	s.mu.Lock()
	s.clicks = append(s.clicks, c)
	s.mu.Unlock()
	return c, nil
}

// Clicks returns a copy of the recorded clicks.
func (s *MemoryClickStore) Clicks() []Click {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Click, len(s.clicks))
	copy(out, s.clicks)
	return out
}

func fillClick(c Click) Click {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.ClickedAt.IsZero() {
		c.ClickedAt = time.Now().UTC()
	}
	return c
}
