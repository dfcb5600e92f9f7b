package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"sagelink/internal/services"
)

// ErrLocked is returned by Open when another run holds the store.
var ErrLocked = errors.New("state store is locked by another run")

const timeLayout = time.RFC3339Nano

// Store holds the processed-entry table and the collision claims. Both are
// loaded into memory by Open. Claims are journaled as they are made
// (CommitClaims); the processed table is written once by Flush.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock

	entries    map[string]Entry
	claims     map[string][]string
	claimOrder []string
}

// LockPath returns the lock file guarding the database at dbPath.
func LockPath(dbPath string) string {
	return dbPath + ".lock"
}

// Open acquires the run lock, opens (or creates) the database at path, and
// loads both tables. Any failure to read existing state is reported as
// services.ErrStateCorrupt.
func Open(ctx context.Context, path string) (*Store, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "state", "ensure state dir", filepath.Dir(path), err)
	}

	lock := flock.New(LockPath(path))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire state lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, LockPath(path))
	}

	store, err := open(ctx, path)
	if err != nil {
		_ = lock.Unlock()
		return nil, services.Wrap(services.ErrStateCorrupt, "state", "load", path, err)
	}
	store.lock = lock
	return store, nil
}

func open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection keeps the in-process view consistent.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		db:      db,
		path:    path,
		entries: make(map[string]Entry),
		claims:  make(map[string][]string),
	}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := store.load(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the database and the run lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	if s.lock != nil {
		errs = append(errs, s.lock.Unlock())
	}
	return errors.Join(errs...)
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT record_id, source_path, mod_time, filename,
        link_path, descriptor_path, collided, updated_at FROM processed_entries`)
	if err != nil {
		return fmt.Errorf("query processed entries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			entry              Entry
			modTime, updatedAt string
			collided           int
		)
		if err := rows.Scan(&entry.RecordID, &entry.SourcePath, &modTime, &entry.Filename,
			&entry.LinkPath, &entry.DescriptorPath, &collided, &updatedAt); err != nil {
			return fmt.Errorf("scan processed entry: %w", err)
		}
		if entry.ModTime, err = parseTime(modTime); err != nil {
			return fmt.Errorf("entry %s mod_time: %w", entry.RecordID, err)
		}
		if entry.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return fmt.Errorf("entry %s updated_at: %w", entry.RecordID, err)
		}
		entry.Collided = collided != 0
		s.entries[entry.RecordID] = entry
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate processed entries: %w", err)
	}

	claimRows, err := s.db.QueryContext(ctx, "SELECT bare_name, record_id FROM collision_claims ORDER BY rowid")
	if err != nil {
		return fmt.Errorf("query collision claims: %w", err)
	}
	defer claimRows.Close()
	for claimRows.Next() {
		var claim Claim
		if err := claimRows.Scan(&claim.BareName, &claim.RecordID); err != nil {
			return fmt.Errorf("scan collision claim: %w", err)
		}
		s.addClaim(claim)
	}
	if err := claimRows.Err(); err != nil {
		return fmt.Errorf("iterate collision claims: %w", err)
	}
	return nil
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, value)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

// Entry returns the processed entry for id.
func (s *Store) Entry(id string) (Entry, bool) {
	entry, ok := s.entries[id]
	return entry, ok
}

// Entries returns all processed entries ordered by record identifier.
func (s *Store) Entries() []Entry {
	out := make([]Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID < out[j].RecordID })
	return out
}

// PutEntry stages entry for the next Flush.
func (s *Store) PutEntry(entry Entry) {
	s.entries[entry.RecordID] = entry
}

// DeleteEntry stages removal of id for the next Flush.
func (s *Store) DeleteEntry(id string) {
	delete(s.entries, id)
}

// Claimants returns the identifiers that have claimed bare, in claim order.
func (s *Store) Claimants(bare string) []string {
	return slices.Clone(s.claims[bare])
}

// HasClaim reports whether id has already claimed bare.
func (s *Store) HasClaim(bare, id string) bool {
	return slices.Contains(s.claims[bare], id)
}

func (s *Store) addClaim(claim Claim) {
	existing, ok := s.claims[claim.BareName]
	if slices.Contains(existing, claim.RecordID) {
		return
	}
	if !ok {
		s.claimOrder = append(s.claimOrder, claim.BareName)
	}
	s.claims[claim.BareName] = append(existing, claim.RecordID)
}

// CommitClaims durably records new claims and drops the processed rows of
// requalified records in one transaction. The in-memory view changes only
// after the commit succeeds. Claims are never removed.
func (s *Store) CommitClaims(ctx context.Context, claims []Claim, dropped []string) error {
	if len(claims) == 0 && len(dropped) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return services.Wrap(services.ErrCollisionPersistence, "state", "begin claim tx", "", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := formatTime(time.Now())
	for _, claim := range claims {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO collision_claims (bare_name, record_id, claimed_at) VALUES (?, ?, ?)",
			claim.BareName, claim.RecordID, now,
		); err != nil {
			return services.Wrap(services.ErrCollisionPersistence, "state", "insert claim", claim.BareName, err)
		}
	}
	for _, id := range dropped {
		if _, err := tx.ExecContext(ctx, "DELETE FROM processed_entries WHERE record_id = ?", id); err != nil {
			return services.Wrap(services.ErrCollisionPersistence, "state", "drop requalified entry", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return services.Wrap(services.ErrCollisionPersistence, "state", "commit claims", "", err)
	}

	for _, claim := range claims {
		s.addClaim(claim)
	}
	for _, id := range dropped {
		delete(s.entries, id)
	}
	return nil
}

// Flush replaces the persisted processed table with the in-memory entries in a
// single transaction. A failed flush leaves the previous table intact.
func (s *Store) Flush(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return services.Wrap(services.ErrStatePersist, "state", "begin flush", "", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM processed_entries"); err != nil {
		return services.Wrap(services.ErrStatePersist, "state", "clear processed entries", "", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO processed_entries (
            record_id, source_path, mod_time, filename, link_path,
            descriptor_path, collided, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return services.Wrap(services.ErrStatePersist, "state", "prepare insert", "", err)
	}
	defer stmt.Close()

	for _, entry := range s.Entries() {
		collided := 0
		if entry.Collided {
			collided = 1
		}
		if _, err := stmt.ExecContext(ctx,
			entry.RecordID, entry.SourcePath, formatTime(entry.ModTime), entry.Filename,
			entry.LinkPath, entry.DescriptorPath, collided, formatTime(entry.UpdatedAt),
		); err != nil {
			return services.Wrap(services.ErrStatePersist, "state", "insert processed entry", entry.RecordID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return services.Wrap(services.ErrStatePersist, "state", "commit flush", "", err)
	}
	return nil
}

// Summary reports aggregate counts for status output.
func (s *Store) Summary() Summary {
	summary := Summary{Entries: len(s.entries), ClaimedNames: len(s.claims)}
	for _, entry := range s.entries {
		if entry.Collided {
			summary.Collided++
		}
	}
	for _, ids := range s.claims {
		if len(ids) > 1 {
			summary.ContestedNames++
		}
	}
	return summary
}

// ContestedNames returns bare names claimed by more than one identifier, in
// the order they were first claimed.
func (s *Store) ContestedNames() []string {
	var out []string
	for _, name := range s.claimOrder {
		if len(s.claims[name]) > 1 {
			out = append(out, name)
		}
	}
	return out
}
