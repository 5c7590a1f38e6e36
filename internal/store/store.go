package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/atlasgate/atlasgate/internal/model"
)

// Store persists license keys. The backing database is selected by driver:
// "sqlite" (default, file-based or in-memory), "postgres", or "mysql".
// Lifecycle timestamps are stored as UTC epoch seconds so that no backend's
// zone handling can leak into expiry math.
type Store struct {
	db     *sqlx.DB
	driver string
}

// Open connects to the configured database and runs migrations. For the
// sqlite driver an empty DSN selects an in-memory database, which tests use.
func Open(driver, dsn string) (*Store, error) {
	var driverName string
	switch driver {
	case "", "sqlite":
		driverName = "sqlite"
		if dsn == "" {
			dsn = ":memory:"
		}
		if !strings.Contains(dsn, "?") {
			dsn += "?_journal_mode=WAL&_busy_timeout=5000"
		}
	case "postgres":
		driverName = "pgx"
	case "mysql":
		driverName = "mysql"
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}

	db, err := sqlx.Connect(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open key store: %w", err)
	}

	if driverName == "sqlite" {
		db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes
	}

	s := &Store{db: db, driver: driverName}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate key store: %w", err)
	}
	return s, nil
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// keyRow is a flat struct that maps 1:1 to the license_keys table columns.
// Timestamps are epoch seconds; nullable columns use sql.Null types.
type keyRow struct {
	ID            int64          `db:"id"`
	KeyCode       string         `db:"key_code"`
	Name          string         `db:"name"`
	DurationHours int64          `db:"duration_hours"`
	UsedByIP      sql.NullString `db:"used_by_ip"`
	CreatedAt     int64          `db:"created_at"`
	FirstUsedAt   sql.NullInt64  `db:"first_used_at"`
}

func (r keyRow) toModel() model.LicenseKey {
	k := model.LicenseKey{
		ID:            r.ID,
		KeyCode:       r.KeyCode,
		Name:          r.Name,
		DurationHours: r.DurationHours,
		CreatedAt:     time.Unix(r.CreatedAt, 0).UTC(),
	}
	if r.UsedByIP.Valid {
		k.UsedByIP = r.UsedByIP.String
	}
	if r.FirstUsedAt.Valid {
		t := time.Unix(r.FirstUsedAt.Int64, 0).UTC()
		k.FirstUsedAt = &t
	}
	return k
}

// CreateKey inserts a new unbound key record. The ID and CreatedAt fields on
// key are populated after a successful insert. A key_code collision returns
// ErrDuplicate so the caller can regenerate and retry.
func (s *Store) CreateKey(ctx context.Context, key *model.LicenseKey) error {
	now := time.Now().UTC().Truncate(time.Second)
	key.CreatedAt = now

	q := s.db.Rebind(`INSERT INTO license_keys (key_code, name, duration_hours, created_at)
		VALUES (?, ?, ?, ?)`)

	if s.driver == "pgx" {
		// LastInsertId is not supported by the pgx stdlib driver.
		q += " RETURNING id"
		if err := s.db.QueryRowxContext(ctx, q, key.KeyCode, key.Name, key.DurationHours, now.Unix()).Scan(&key.ID); err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("insert key: %w", err)
		}
		return nil
	}

	result, err := s.db.ExecContext(ctx, q, key.KeyCode, key.Name, key.DurationHours, now.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert key: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get key id: %w", err)
	}
	key.ID = id
	return nil
}

// GetKeyByCode returns the key record whose code exactly matches code.
func (s *Store) GetKeyByCode(ctx context.Context, code string) (*model.LicenseKey, error) {
	var row keyRow
	q := s.db.Rebind("SELECT * FROM license_keys WHERE key_code = ?")
	if err := s.db.GetContext(ctx, &row, q, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get key by code: %w", err)
	}
	key := row.toModel()
	return &key, nil
}

// ListKeys returns all key records, newest first.
func (s *Store) ListKeys(ctx context.Context) ([]model.LicenseKey, error) {
	var rows []keyRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM license_keys ORDER BY created_at DESC, id DESC"); err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}

	keys := make([]model.LicenseKey, len(rows))
	for i, r := range rows {
		keys[i] = r.toModel()
	}
	return keys, nil
}

// BindKey claims a still-unbound key for ip, recording firstUsed as the start
// of its validity window. The update is a compare-and-set: it only applies
// while used_by_ip is NULL, so concurrent first uses race safely and exactly
// one wins. Returns true if this call won the binding.
func (s *Store) BindKey(ctx context.Context, id int64, ip string, firstUsed time.Time) (bool, error) {
	q := s.db.Rebind(`UPDATE license_keys SET used_by_ip = ?, first_used_at = ?
		WHERE id = ? AND used_by_ip IS NULL`)

	result, err := s.db.ExecContext(ctx, q, ip, firstUsed.UTC().Unix(), id)
	if err != nil {
		return false, fmt.Errorf("bind key: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("bind key rows affected: %w", err)
	}
	return n == 1, nil
}

// isUniqueViolation reports whether err is a uniqueness constraint error
// from any of the supported backends. Postgres and MySQL expose typed
// errors; modernc sqlite does not, so its check falls back to message text.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062 // ER_DUP_ENTRY
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
