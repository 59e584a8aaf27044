// Package store persists calibration search outcomes in SQLite, keyed by
// the content digest of the program image, so a repeated search over the
// same program and target is answered without running the machine.
package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	_ "modernc.org/sqlite"
)

var log = commonlog.GetLogger("intcode.store")

// ErrRecordNotFound indicates no outcome is stored for the requested key.
var ErrRecordNotFound = errors.New("calibration record not found")

// Key identifies a calibration outcome. Settings that can change the
// answer are part of the key.
type Key struct {
	Digest    [32]byte
	Target    uint64
	StepLimit uint64
	Policy    string
}

// Record is one stored calibration outcome.
type Record struct {
	Key
	RunID     string
	Found     bool
	Noun      uint64
	Verb      uint64
	Trials    int
	Faults    int
	Snapshot  []byte // CBOR snapshot of the winning image, if any
	CreatedAt time.Time
}

// Store is a SQLite-backed record store. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS calibrations (
		digest     TEXT    NOT NULL,
		target     INTEGER NOT NULL,
		step_limit INTEGER NOT NULL,
		policy     TEXT    NOT NULL,
		run_id     TEXT    NOT NULL,
		found      INTEGER NOT NULL,
		noun       INTEGER NOT NULL,
		verb       INTEGER NOT NULL,
		trials     INTEGER NOT NULL,
		faults     INTEGER NOT NULL,
		snapshot   BLOB,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (digest, target, step_limit, policy)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Save stores rec, replacing any record with the same key. A missing RunID
// or CreatedAt is filled in.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if rec.RunID == "" {
		rec.RunID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO calibrations
		(digest, target, step_limit, policy, run_id, found, noun, verb, trials, faults, snapshot, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		hex.EncodeToString(rec.Digest[:]), int64(rec.Target), int64(rec.StepLimit), rec.Policy,
		rec.RunID, boolInt(rec.Found), int64(rec.Noun), int64(rec.Verb), rec.Trials, rec.Faults,
		rec.Snapshot, rec.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("saving calibration: %w", err)
	}

	log.Debugf("saved run %s (target %d, found %t)", rec.RunID, rec.Target, rec.Found)
	return nil
}

// Lookup returns the record stored under key.
func (s *Store) Lookup(ctx context.Context, key Key) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT digest, target, step_limit, policy, run_id, found, noun, verb, trials, faults, snapshot, created_at
		FROM calibrations WHERE digest = ? AND target = ? AND step_limit = ? AND policy = ?`,
		hex.EncodeToString(key.Digest[:]), int64(key.Target), int64(key.StepLimit), key.Policy,
	)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying calibration: %w", err)
	}
	return rec, nil
}

// History returns every record stored for a program digest, oldest first.
func (s *Store) History(ctx context.Context, digest [32]byte) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT digest, target, step_limit, policy, run_id, found, noun, verb, trials, faults, snapshot, created_at
		FROM calibrations WHERE digest = ? ORDER BY created_at, run_id`,
		hex.EncodeToString(digest[:]),
	)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("reading history: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*Record, error) {
	var rec Record
	var digestHex string
	var target, stepLimit, noun, verb, at int64
	err := sc.Scan(&digestHex, &target, &stepLimit, &rec.Policy, &rec.RunID, &rec.Found,
		&noun, &verb, &rec.Trials, &rec.Faults, &rec.Snapshot, &at)
	if err != nil {
		return nil, err
	}

	raw, err := hex.DecodeString(digestHex)
	if err != nil || len(raw) != len(rec.Digest) {
		return nil, fmt.Errorf("corrupt digest %q", digestHex)
	}
	copy(rec.Digest[:], raw)
	rec.Target = uint64(target)
	rec.StepLimit = uint64(stepLimit)
	rec.Noun = uint64(noun)
	rec.Verb = uint64(verb)
	rec.CreatedAt = time.Unix(0, at)
	return &rec, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
