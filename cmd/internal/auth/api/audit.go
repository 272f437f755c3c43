package authapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditEvent is one auth_audit row.
type AuditEvent struct {
	Action    string
	UserID    string
	IP        net.IP
	UserAgent string
	Meta      map[string]any
}

// Auditor records auth events. Implementations must not block the request path for long.
type Auditor interface {
	Record(ctx context.Context, ev AuditEvent)
}

// NopAuditor drops every event.
type NopAuditor struct{}

func (NopAuditor) Record(context.Context, AuditEvent) {}

// LogAuditor writes events to the structured log.
type LogAuditor struct {
	Log *slog.Logger
}

func (a LogAuditor) Record(_ context.Context, ev AuditEvent) {
	log := a.Log
	if log == nil {
		log = slog.Default()
	}
	log.Info("auth.audit", "action", ev.Action, "user_id", ev.UserID, "ip", ipString(ev.IP), "meta", ev.Meta)
}

// PostgresAuditor inserts events into auth_audit. Failures are logged and swallowed.
// Close must run before the pool is closed so in-flight inserts finish.
type PostgresAuditor struct {
	exec    func(ctx context.Context, sql string, args ...any) error
	log     *slog.Logger
	table   string
	timeout time.Duration

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// NewPostgresAuditor returns an auditor writing to schema.auth_audit.
func NewPostgresAuditor(log *slog.Logger, pool *pgxpool.Pool, schema string) (*PostgresAuditor, error) {
	if pool == nil {
		return nil, errors.New("authapi: nil db pool")
	}
	if log == nil {
		log = slog.Default()
	}
	if schema == "" {
		schema = "public"
	}
	return &PostgresAuditor{
		exec: func(ctx context.Context, sql string, args ...any) error {
			_, err := pool.Exec(ctx, sql, args...)
			return err
		},
		log:     log,
		table:   pgx.Identifier{schema, "auth_audit"}.Sanitize(),
		timeout: 2 * time.Second,
	}, nil
}

// Record inserts ev in the background using a context detached from the request.
func (a *PostgresAuditor) Record(ctx context.Context, ev AuditEvent) {
	if a == nil || a.exec == nil {
		return
	}
	action := strings.TrimSpace(ev.Action)
	if action == "" {
		return
	}

	var metaVal *string
	if len(ev.Meta) > 0 {
		if b, err := json.Marshal(ev.Meta); err == nil {
			s := string(b)
			metaVal = &s
		}
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		a.log.Warn("auth.audit.dropped", "action", action, "reason", "closed")
		return
	}
	a.inflight.Add(1)
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	go func() {
		defer a.inflight.Done()
		defer cancel()
		err := a.exec(ctx, `
			INSERT INTO `+a.table+` (action, user_id, ip, user_agent, meta)
			VALUES ($1, $2, $3, $4, $5::jsonb)
		`, action, trimOrNil(ev.UserID), ipOrNil(ev.IP), trimOrNil(ev.UserAgent), metaVal)
		if err != nil {
			a.log.Error("auth.audit.insert.fail", "err", err, "action", action)
		}
	}()
}

// Close stops accepting events and waits for in-flight inserts. Each insert is bounded by its timeout.
func (a *PostgresAuditor) Close() {
	if a == nil {
		return
	}
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.inflight.Wait()
}

func trimOrNil(s string) any {
	v := strings.TrimSpace(s)
	if v == "" {
		return nil
	}
	return v
}

func ipOrNil(ip net.IP) any {
	if ip == nil {
		return nil
	}
	return ip.String()
}

func ipString(ip net.IP) string {
	if ip == nil {
		return ""
	}
	return ip.String()
}
