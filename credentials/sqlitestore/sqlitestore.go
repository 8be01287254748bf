package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/jrsteele09/agent-console/credentials"
)

var _ credentials.Store = (*SQLiteStore)(nil)

const (
	currentSlot      = "current"
	defaultOpTimeout = 5 * time.Second
)

// SQLiteStore keeps the credential pair in a single row of an embedded sqlite
// database. Both columns are written by one upsert statement.
type SQLiteStore struct {
	db        *sql.DB
	opTimeout time.Duration
}

func New(dbPath string) (*SQLiteStore, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o700); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), defaultOpTimeout)
	defer cancel()
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if dbPath != ":memory:" {
		if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL;`); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, opTimeout: defaultOpTimeout}, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS credentials (
	slot TEXT PRIMARY KEY,
	access_token TEXT NOT NULL,
	refresh_token TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);`)
	if err != nil {
		return fmt.Errorf("create credentials table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Save(pair credentials.Pair) error {
	if err := credentials.CheckPair(pair); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
INSERT INTO credentials (slot, access_token, refresh_token, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(slot) DO UPDATE SET
	access_token = excluded.access_token,
	refresh_token = excluded.refresh_token,
	updated_at = excluded.updated_at;`,
		currentSlot, pair.AccessToken, pair.RefreshToken, time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("[sqlitestore Save] %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load() (credentials.Pair, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
	defer cancel()

	var pair credentials.Pair
	err := s.db.QueryRowContext(ctx,
		`SELECT access_token, refresh_token FROM credentials WHERE slot = ?`, currentSlot,
	).Scan(&pair.AccessToken, &pair.RefreshToken)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Warn().Err(err).Msg("Credentials row unreadable, treating as logged out")
		}
		return credentials.Pair{}, false
	}
	if !pair.Valid() {
		return credentials.Pair{}, false
	}
	return pair, true
}

func (s *SQLiteStore) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM credentials WHERE slot = ?`, currentSlot); err != nil {
		return fmt.Errorf("[sqlitestore Clear] %w", err)
	}
	return nil
}
