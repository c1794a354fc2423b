// Package store persists named fingerprints in SQLite. Bit vectors are
// stored packed (the bitvec binary form), not as "0101" text, so a million
// bit fingerprint costs 125 KB on disk instead of 1 MB.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/mkadlec/binsim/bitvec"
	"github.com/mkadlec/binsim/internal/models"
	"github.com/mkadlec/binsim/internal/observability"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// ErrFingerprintNotFound is returned by Get and Delete when no fingerprint
// with the requested name exists.
var ErrFingerprintNotFound = errors.New("fingerprint not found")

// Repository provides fingerprint persistence over a sqlx connection pool.
type Repository struct {
	db *sqlx.DB
}

// Open connects to the SQLite database file at path, applies pending
// migrations, and returns a ready Repository. The parent directory is
// created if missing. busyTimeout bounds how long writes wait on a locked
// database.
func Open(path string, busyTimeout time.Duration) (*Repository, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory %s: %w", dir, err)
		}
	}
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}

	db, err := sqlx.Connect("sqlite", fmt.Sprintf("%s?_journal=WAL&_timeout=%d&_fk=true", path, busyTimeout.Milliseconds()))
	if err != nil {
		return nil, fmt.Errorf("connecting to store: %w", err)
	}

	// modernc sqlite serializes writers; a single connection avoids
	// SQLITE_BUSY churn under concurrent handlers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d;", busyTimeout.Milliseconds())); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(string(goose.DialectSQLite3)); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting dialect for migrations: %w", err)
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

// Close terminates the database connection.
func (repo *Repository) Close() error {
	if err := repo.db.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable. Used for health checks.
func (repo *Repository) Ping(ctx context.Context) error {
	return repo.db.PingContext(ctx)
}

// dbFingerprint is the row form of models.Fingerprint.
type dbFingerprint struct {
	Name      string    `db:"name"`
	Length    int       `db:"length"`
	Bits      []byte    `db:"bits"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func toDBFingerprint(fp models.Fingerprint, now time.Time) (dbFingerprint, error) {
	vec, err := bitvec.ParsePacked(fp.Bits)
	if err != nil {
		return dbFingerprint{}, fmt.Errorf("encoding bits for %s: %w", fp.Name, err)
	}
	blob, err := vec.MarshalBinary()
	if err != nil {
		return dbFingerprint{}, fmt.Errorf("encoding bits for %s: %w", fp.Name, err)
	}
	return dbFingerprint{
		Name:      fp.Name,
		Length:    vec.Len(),
		Bits:      blob,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func toModelFingerprint(row dbFingerprint) (models.Fingerprint, error) {
	var vec bitvec.Packed
	if err := vec.UnmarshalBinary(row.Bits); err != nil {
		return models.Fingerprint{}, fmt.Errorf("decoding bits for %s: %w", row.Name, err)
	}
	return models.Fingerprint{
		Name:      row.Name,
		Bits:      vec.String(),
		Length:    row.Length,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}, nil
}

const upsertQuery = `
	INSERT INTO fingerprint (name, length, bits, created_at, updated_at)
	VALUES (:name, :length, :bits, :created_at, :updated_at)
	ON CONFLICT(name) DO UPDATE SET
		length = excluded.length,
		bits = excluded.bits,
		updated_at = excluded.updated_at`

// bumpRevisionQuery advances the persisted catalog revision. It runs inside
// every mutation transaction so the revision survives restarts and never
// repeats a value under which a different catalog was cached.
const bumpRevisionQuery = `UPDATE catalog_meta SET value = value + 1 WHERE key = 'revision'`

// Put inserts or replaces the fingerprint by name. Returns true when the
// name did not exist before. created_at survives replacement.
func (repo *Repository) Put(ctx context.Context, fp models.Fingerprint) (created bool, err error) {
	start := time.Now()
	defer func() { observe("put", start, err) }()

	row, err := toDBFingerprint(fp, time.Now().UTC())
	if err != nil {
		return false, err
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("starting put transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM fingerprint WHERE name = ?)`, fp.Name); err != nil {
		return false, fmt.Errorf("checking fingerprint %s: %w", fp.Name, err)
	}
	if _, err := tx.NamedExecContext(ctx, upsertQuery, row); err != nil {
		return false, fmt.Errorf("upserting fingerprint %s: %w", fp.Name, err)
	}
	if _, err := tx.ExecContext(ctx, bumpRevisionQuery); err != nil {
		return false, fmt.Errorf("bumping revision for %s: %w", fp.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing fingerprint %s: %w", fp.Name, err)
	}
	return !exists, nil
}

// PutBatch upserts all fingerprints in one transaction. Either every row
// lands or none do; per-record validation belongs to the caller.
func (repo *Repository) PutBatch(ctx context.Context, fps []models.Fingerprint) (err error) {
	start := time.Now()
	defer func() { observe("put_batch", start, err) }()

	if len(fps) == 0 {
		return nil
	}
	now := time.Now().UTC()

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting batch transaction: %w", err)
	}
	defer tx.Rollback()

	for _, fp := range fps {
		row, err := toDBFingerprint(fp, now)
		if err != nil {
			return err
		}
		if _, err := tx.NamedExecContext(ctx, upsertQuery, row); err != nil {
			return fmt.Errorf("upserting fingerprint %s: %w", fp.Name, err)
		}
	}
	if _, err := tx.ExecContext(ctx, bumpRevisionQuery); err != nil {
		return fmt.Errorf("bumping revision for batch: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}

// Get returns the fingerprint with the given name, or ErrFingerprintNotFound.
func (repo *Repository) Get(ctx context.Context, name string) (fp models.Fingerprint, err error) {
	start := time.Now()
	defer func() { observe("get", start, err) }()

	var row dbFingerprint
	query := `SELECT name, length, bits, created_at, updated_at FROM fingerprint WHERE name = ?`
	if err := repo.db.GetContext(ctx, &row, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Fingerprint{}, ErrFingerprintNotFound
		}
		return models.Fingerprint{}, fmt.Errorf("getting fingerprint %s: %w", name, err)
	}
	return toModelFingerprint(row)
}

// List returns fingerprints ordered by name. limit <= 0 means no limit.
func (repo *Repository) List(ctx context.Context, limit, offset int) (fps []models.Fingerprint, err error) {
	start := time.Now()
	defer func() { observe("list", start, err) }()

	if limit <= 0 {
		limit = -1 // sqlite: negative LIMIT disables the cap
	}
	if offset < 0 {
		offset = 0
	}

	var rows []dbFingerprint
	query := `SELECT name, length, bits, created_at, updated_at FROM fingerprint ORDER BY name LIMIT ? OFFSET ?`
	if err := repo.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("listing fingerprints: %w", err)
	}

	fps = make([]models.Fingerprint, 0, len(rows))
	for _, row := range rows {
		fp, err := toModelFingerprint(row)
		if err != nil {
			return nil, err
		}
		fps = append(fps, fp)
	}
	return fps, nil
}

// Names returns all fingerprint names ordered by name.
func (repo *Repository) Names(ctx context.Context) (names []string, err error) {
	start := time.Now()
	defer func() { observe("names", start, err) }()

	if err := repo.db.SelectContext(ctx, &names, `SELECT name FROM fingerprint ORDER BY name`); err != nil {
		return nil, fmt.Errorf("listing fingerprint names: %w", err)
	}
	return names, nil
}

// Delete removes the fingerprint with the given name, or returns
// ErrFingerprintNotFound when it does not exist.
func (repo *Repository) Delete(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { observe("delete", start, err) }()

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting delete transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM fingerprint WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("deleting fingerprint %s: %w", name, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected for %s: %w", name, err)
	}
	if affected == 0 {
		return ErrFingerprintNotFound
	}
	if _, err := tx.ExecContext(ctx, bumpRevisionQuery); err != nil {
		return fmt.Errorf("bumping revision for %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete of %s: %w", name, err)
	}
	return nil
}

// Count returns the number of stored fingerprints.
func (repo *Repository) Count(ctx context.Context) (n int, err error) {
	start := time.Now()
	defer func() { observe("count", start, err) }()

	if err := repo.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM fingerprint`); err != nil {
		return 0, fmt.Errorf("counting fingerprints: %w", err)
	}
	return n, nil
}

// Revision returns the persisted catalog revision. It increases with every
// mutation and is used to version cache keys across process restarts.
func (repo *Repository) Revision(ctx context.Context) (rev int64, err error) {
	start := time.Now()
	defer func() { observe("revision", start, err) }()

	if err := repo.db.GetContext(ctx, &rev, `SELECT value FROM catalog_meta WHERE key = 'revision'`); err != nil {
		return 0, fmt.Errorf("reading catalog revision: %w", err)
	}
	return rev, nil
}

func observe(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	observability.StoreOperationsTotal.WithLabelValues(op, status).Inc()
	observability.StoreOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
