// Package cache keeps recently discovered routes in a local sqlite file so
// repeated `swap route` calls inside the quote TTL skip the aggregator.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

const lockWait = 5 * time.Second

type Store struct {
	db   *sql.DB
	lock *flock.Flock
	now  func() time.Time
}

type Result struct {
	Hit      bool
	Value    []byte
	Age      time.Duration
	Stale    bool
	TooStale bool
}

// RouteKey identifies one discovery request. Address case and dex order do
// not change the key.
type RouteKey struct {
	ChainID  int64
	TokenIn  common.Address
	TokenOut common.Address
	AmountIn *big.Int
	SaveGas  bool
	Dexes    []string
	GasPrice *big.Int
}

func (k RouteKey) String() string {
	dexes := make([]string, 0, len(k.Dexes))
	for _, d := range k.Dexes {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			dexes = append(dexes, d)
		}
	}
	sort.Strings(dexes)
	parts := []string{
		"route",
		fmt.Sprintf("%d", k.ChainID),
		strings.ToLower(k.TokenIn.Hex()),
		strings.ToLower(k.TokenOut.Hex()),
		bigString(k.AmountIn),
		fmt.Sprintf("%t", k.SaveGas),
		strings.Join(dexes, ","),
		bigString(k.GasPrice),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func bigString(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}

func Open(path, lockPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	// busy_timeout must hold on every pooled connection before its first statement.
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache: %w", err)
	}

	store := &Store{db: db, lock: flock.New(lockPath), now: time.Now}
	if err := store.withLock(store.initSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	_ = store.Prune()
	return store, nil
}

func (s *Store) initSchema() error {
	queries := []string{
		"PRAGMA journal_mode=WAL;",
		`CREATE TABLE IF NOT EXISTS route_quotes (
			key TEXT PRIMARY KEY,
			chain_id INTEGER NOT NULL,
			value BLOB NOT NULL,
			created_at INTEGER NOT NULL,
			ttl_seconds INTEGER NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS route_quotes_chain ON route_quotes (chain_id);",
	}
	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Prune deletes quotes whose TTL has fully expired.
func (s *Store) Prune() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.withLock(func() error {
		_, err := s.db.Exec("DELETE FROM route_quotes WHERE created_at + ttl_seconds < ?", s.now().UTC().Unix())
		if err != nil {
			return fmt.Errorf("prune cache: %w", err)
		}
		return nil
	})
}

// Get returns the cached quote for key. A negative maxStale accepts any age.
func (s *Store) Get(key RouteKey, maxStale time.Duration) (Result, error) {
	var value []byte
	var createdUnix int64
	var ttlSeconds int64
	err := s.db.QueryRow("SELECT value, created_at, ttl_seconds FROM route_quotes WHERE key = ?", key.String()).
		Scan(&value, &createdUnix, &ttlSeconds)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Result{Hit: false}, nil
		}
		return Result{}, fmt.Errorf("cache read: %w", err)
	}

	age := s.now().UTC().Sub(time.Unix(createdUnix, 0).UTC())
	if age < 0 {
		age = 0
	}
	ttl := time.Duration(ttlSeconds) * time.Second
	stale := age > ttl
	return Result{
		Hit:      true,
		Value:    value,
		Age:      age,
		Stale:    stale,
		TooStale: stale && maxStale >= 0 && age > ttl+maxStale,
	}, nil
}

func (s *Store) Set(key RouteKey, value []byte, ttl time.Duration) error {
	ttlSeconds := int64(ttl.Seconds())
	if ttlSeconds <= 0 {
		ttlSeconds = 1
	}
	return s.withLock(func() error {
		_, err := s.db.Exec(`
			INSERT INTO route_quotes (key, chain_id, value, created_at, ttl_seconds)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				value=excluded.value,
				created_at=excluded.created_at,
				ttl_seconds=excluded.ttl_seconds
		`, key.String(), key.ChainID, value, s.now().UTC().Unix(), ttlSeconds)
		if err != nil {
			return fmt.Errorf("cache write: %w", err)
		}
		return nil
	})
}

// Purge drops every cached quote for chainID, or all quotes when chainID is 0.
func (s *Store) Purge(chainID int64) (int64, error) {
	var removed int64
	err := s.withLock(func() error {
		var res sql.Result
		var err error
		if chainID == 0 {
			res, err = s.db.Exec("DELETE FROM route_quotes")
		} else {
			res, err = s.db.Exec("DELETE FROM route_quotes WHERE chain_id = ?", chainID)
		}
		if err != nil {
			return fmt.Errorf("purge cache: %w", err)
		}
		removed, _ = res.RowsAffected()
		return nil
	})
	return removed, err
}

func (s *Store) withLock(fn func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), lockWait)
	defer cancel()
	locked, err := s.lock.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil {
		return fmt.Errorf("lock cache: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock cache: timeout acquiring lock")
	}
	defer func() { _ = s.lock.Unlock() }()
	return fn()
}
