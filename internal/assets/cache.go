/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package assets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "triptych/internal/log"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	CacheFileName = "assets.sqlite"
	// DefaultCacheBytes caps the cached payload when no limit is configured.
	DefaultCacheBytes = 64 << 20
)

// Entry is one cached remote resource.
type Entry struct {
	URL    string
	MIME   string
	Width  int
	Height int
	Data   []byte
}

// Cache stores fetched remote images keyed by URL and evicts the least
// recently used rows once the total payload exceeds the cap.
type Cache struct {
	db       *sql.DB
	maxBytes int64
}

// OpenCache opens or creates the cache database in dir.
func OpenCache(ctx context.Context, dir string, maxBytes int64) (*Cache, error) {
	l := applog.WithOperation(applog.WithComponent("assets"), "cache_open").With(slog.String("dir", dir))
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("cache dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(filepath.Join(dir, CacheFileName)))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS assets (
		url         TEXT PRIMARY KEY,
		mime        TEXT    NOT NULL,
		w           INTEGER NOT NULL,
		h           INTEGER NOT NULL,
		blob        BLOB,
		size        INTEGER NOT NULL DEFAULT 0,
		updated_at  TEXT    NOT NULL,
		last_access INTEGER NOT NULL DEFAULT 0
	);`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure assets table: %w", err)
	}
	_, _ = db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_assets_access ON assets(last_access)`)
	if maxBytes <= 0 {
		maxBytes = DefaultCacheBytes
	}
	l.Debug("asset cache ready", slog.Int64("max_bytes", maxBytes))
	return &Cache{db: db, maxBytes: maxBytes}, nil
}

func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Get returns the entry for url and marks it as recently used.
func (c *Cache) Get(ctx context.Context, url string) (Entry, bool, error) {
	e := Entry{URL: url}
	err := c.db.QueryRowContext(ctx, `SELECT mime, w, h, blob FROM assets WHERE url=?`, url).
		Scan(&e.MIME, &e.Width, &e.Height, &e.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("query asset: %w", err)
	}
	_, _ = c.db.ExecContext(ctx, `UPDATE assets SET last_access=? WHERE url=?`, time.Now().UnixNano(), url)
	return e, true, nil
}

// Put upserts e and enforces the size cap.
func (c *Cache) Put(ctx context.Context, e Entry) error {
	if e.URL == "" {
		return errors.New("cache entry without url")
	}
	now := time.Now()
	_, err := c.db.ExecContext(ctx, `INSERT INTO assets(url,mime,w,h,blob,size,updated_at,last_access)
		VALUES(?,?,?,?,?,?,?,?)
		ON CONFLICT(url) DO UPDATE SET mime=excluded.mime, w=excluded.w, h=excluded.h, blob=excluded.blob,
			size=excluded.size, updated_at=excluded.updated_at, last_access=excluded.last_access`,
		e.URL, e.MIME, e.Width, e.Height, e.Data, len(e.Data), now.UTC().Format(time.RFC3339), now.UnixNano())
	if err != nil {
		return fmt.Errorf("upsert asset: %w", err)
	}
	return c.evictToFit(ctx)
}

// evictToFit deletes least recently used rows until the total size fits.
func (c *Cache) evictToFit(ctx context.Context) error {
	total, err := c.TotalBytes(ctx)
	if err != nil || total <= c.maxBytes {
		return err
	}
	rows, err := c.db.QueryContext(ctx, `SELECT url, size FROM assets ORDER BY last_access ASC`)
	if err != nil {
		return fmt.Errorf("select victims: %w", err)
	}
	var victims []any
	for total > c.maxBytes && rows.Next() {
		var url string
		var sz int64
		if err := rows.Scan(&url, &sz); err != nil {
			_ = rows.Close()
			return err
		}
		victims = append(victims, url)
		total -= sz
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	// The cursor must be closed before writing on a single connection.
	if err := rows.Close(); err != nil {
		return err
	}
	if len(victims) == 0 {
		return nil
	}
	q := `DELETE FROM assets WHERE url IN (?` + strings.Repeat(",?", len(victims)-1) + `)`
	if _, err := c.db.ExecContext(ctx, q, victims...); err != nil {
		return fmt.Errorf("evict delete: %w", err)
	}
	applog.WithOperation(applog.WithComponent("assets"), "cache_evict").Debug("evicted", slog.Int("rows", len(victims)))
	return nil
}

// TotalBytes is the cached payload size.
func (c *Cache) TotalBytes(ctx context.Context) (int64, error) {
	var total int64
	if err := c.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(size),0) FROM assets`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum asset size: %w", err)
	}
	return total, nil
}

// Len is the number of cached entries.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assets`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
