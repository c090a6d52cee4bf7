package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	pdexerrors "github.com/promptdex/promptdex/internal/errors"
)

// sqlitePollInterval is how often watchers check for changed rows. The feed
// only has to beat a human switching tabs, not a replication SLA.
const sqlitePollInterval = 800 * time.Millisecond

// SQLiteStore is a single-file Store backend. Unlike Badger there is no
// native change subscription, so Watch polls the updated_at column at a low
// frequency.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// OpenSQLite opens (and if needed initializes) a SQLite-backed store at the
// given file path. WAL mode keeps concurrent readers cheap.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, pdexerrors.Wrap(pdexerrors.ErrCodeStorageOpen, err)
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_kv_updated_at ON kv(updated_at);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, pdexerrors.Wrap(pdexerrors.ErrCodeStorageOpen, err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, pdexerrors.Wrap(pdexerrors.ErrCodeStorageRead, err)
	}
	return value, true, nil
}

// Set implements Store.
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UnixNano())
	if err != nil {
		return pdexerrors.Wrap(pdexerrors.ErrCodeStorageWrite, err)
	}
	return nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return pdexerrors.Wrap(pdexerrors.ErrCodeStorageWrite, err)
	}
	return nil
}

// Keys implements Store.
func (s *SQLiteStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM kv WHERE key LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%")
	if err != nil {
		return nil, pdexerrors.Wrap(pdexerrors.ErrCodeStorageRead, err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, pdexerrors.Wrap(pdexerrors.ErrCodeStorageRead, err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, pdexerrors.Wrap(pdexerrors.ErrCodeStorageRead, err)
	}
	return keys, nil
}

// Watch implements Store by polling for rows whose updated_at advanced past
// the last observed high-water mark.
func (s *SQLiteStore) Watch(ctx context.Context, prefix string) (<-chan Event, error) {
	ch := make(chan Event, 16)
	since := time.Now().UnixNano()

	go func() {
		defer close(ch)
		ticker := time.NewTicker(sqlitePollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				next, events, err := s.changedSince(ctx, prefix, since)
				if err != nil {
					s.logger.Debug("sqlite change poll failed",
						slog.String("error", err.Error()))
					continue
				}
				since = next
				for _, ev := range events {
					select {
					case ch <- ev:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return ch, nil
}

func (s *SQLiteStore) changedSince(ctx context.Context, prefix string, since int64) (int64, []Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value, updated_at FROM kv
		 WHERE key LIKE ? ESCAPE '\' AND updated_at > ?
		 ORDER BY updated_at`, escapeLike(prefix)+"%", since)
	if err != nil {
		return since, nil, err
	}
	defer func() { _ = rows.Close() }()

	high := since
	var events []Event
	for rows.Next() {
		var ev Event
		var at int64
		if err := rows.Scan(&ev.Key, &ev.Value, &at); err != nil {
			return high, events, err
		}
		if at > high {
			high = at
		}
		events = append(events, ev)
	}
	return high, events, rows.Err()
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// escapeLike escapes LIKE metacharacters in a literal prefix.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
