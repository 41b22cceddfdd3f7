// Package store persists leads and funnel events in Postgres or SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const pingAttempts = 5

// Supported values for the driver argument of Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrNotFound is returned when an update matches no row.
var ErrNotFound = errors.New("record not found")

type dialect struct {
	name       string
	dollarArgs bool
	adminLeads string
}

var dialects = map[string]dialect{
	DriverPostgres: {
		name:       DriverPostgres,
		dollarArgs: true,
		adminLeads: `SELECT id, name, phone, email, situation, problem, implication, whatsapp_sent, created_at
			FROM get_admin_leads(?)`,
	},
	DriverSQLite: {
		name: DriverSQLite,
		adminLeads: `SELECT id, name, phone, email, situation, problem, implication, whatsapp_sent, created_at
			FROM leads
			ORDER BY created_at DESC
			LIMIT ?`,
	},
}

// Store is the lead and funnel-event repository.
type Store struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

// Open connects to the database and checks it is reachable. Migrations are
// applied separately with Migrate.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("database dsn is required")
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One writer; also keeps ":memory:" databases on a single connection.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", driver, err)
	}
	if driver == DriverSQLite {
		if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("configure sqlite: %w", err)
		}
	}

	return &Store{db: db, dialect: d, now: time.Now}, nil
}

// ping waits for the database to come up, which matters when the app and
// Postgres start together.
func ping(ctx context.Context, db *sql.DB) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 500 * time.Millisecond
	eb.MaxInterval = 3 * time.Second
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, pingAttempts-1), ctx)
	return backoff.Retry(func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	}, policy)
}

// Driver returns the name of the SQL dialect in use.
func (s *Store) Driver() string {
	return s.dialect.name
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// rebind rewrites '?' placeholders to "$1, $2, ..." for Postgres.
func (s *Store) rebind(query string) string {
	if !s.dialect.dollarArgs {
		return query
	}
	return rebindDollar(query)
}

func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
