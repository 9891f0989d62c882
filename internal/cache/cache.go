// Package cache implements the persistent, concurrency-safe caches
// spec.md §5 says the driver owns and exposes as opaque handles: a
// content-addressed item-interning cache and an import-expansion
// cache, each backed by its own SQLite table, with a singleflight group
// collapsing concurrent misses on the same key to one query.
package cache

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"golang.org/x/sync/singleflight"
)

// Handle is an opaque cache owned by the driver and shared across
// compilations — spec.md §5's "single writer / many readers"
// discipline is enforced by serializing writes through one *sql.DB
// connection pool rather than a bespoke lock.
type Handle struct {
	db    *sql.DB
	group singleflight.Group
}

// Open opens (creating if absent) the SQLite-backed cache at path. An
// empty path opens an in-memory database, useful for tests and
// one-shot driver invocations that don't need the cache to survive
// past the process.
func Open(path string) (*Handle, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Handle{db: db}, nil
}

// Close releases the underlying database connection.
func (h *Handle) Close() error { return h.db.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS items (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS imports (
	unit_name TEXT PRIMARY KEY,
	expanded  BLOB NOT NULL
);
`

// InternItem looks up a content-addressed heap item by its
// (opcode, operand-hash, data-hash) key, computing and storing it via
// compute on a miss. Concurrent lookups for the same key collapse to
// one compute call and one SQLite round-trip (singleflight).
func (h *Handle) InternItem(ctx context.Context, key string, compute func() ([]byte, error)) ([]byte, error) {
	return h.lookup(ctx, "items", "key", "value", key, compute)
}

// ExpandedImport looks up a unit's already-expanded import closure,
// computing and storing it via compute on a miss.
func (h *Handle) ExpandedImport(ctx context.Context, unitName string, compute func() ([]byte, error)) ([]byte, error) {
	return h.lookup(ctx, "imports", "unit_name", "expanded", unitName, compute)
}

func (h *Handle) lookup(ctx context.Context, table, keyCol, valCol, key string, compute func() ([]byte, error)) ([]byte, error) {
	v, err, _ := h.group.Do(table+":"+key, func() (interface{}, error) {
		var blob []byte
		row := h.db.QueryRowContext(ctx, fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", valCol, table, keyCol), key)
		switch err := row.Scan(&blob); err {
		case nil:
			return blob, nil
		case sql.ErrNoRows:
			blob, err := compute()
			if err != nil {
				return nil, err
			}
			_, err = h.db.ExecContext(ctx,
				fmt.Sprintf("INSERT OR REPLACE INTO %s (%s, %s) VALUES (?, ?)", table, keyCol, valCol),
				key, blob)
			if err != nil {
				return nil, err
			}
			return blob, nil
		default:
			return nil, err
		}
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}
