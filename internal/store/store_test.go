package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/atlasgate/atlasgate/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("sqlite", "") // in-memory
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	key := &model.LicenseKey{
		KeyCode:       "ATLAS-AB12-CD34",
		Name:          "alice",
		DurationHours: 24,
	}
	if err := s.CreateKey(ctx, key); err != nil {
		t.Fatalf("CreateKey: %v", err)
	}
	if key.ID == 0 {
		t.Error("expected ID to be populated after insert")
	}
	if key.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be populated after insert")
	}
	if key.CreatedAt.Location() != time.UTC {
		t.Errorf("CreatedAt zone = %v, want UTC", key.CreatedAt.Location())
	}

	got, err := s.GetKeyByCode(ctx, "ATLAS-AB12-CD34")
	if err != nil {
		t.Fatalf("GetKeyByCode: %v", err)
	}
	if got.ID != key.ID || got.Name != "alice" || got.DurationHours != 24 {
		t.Errorf("got %+v, want inserted key", got)
	}
	if got.Bound() {
		t.Error("fresh key should be unbound")
	}
	if got.FirstUsedAt != nil {
		t.Error("fresh key should have no first_used_at")
	}
}

func TestGetKeyByCode_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetKeyByCode(context.Background(), "ATLAS-ZZZZ-ZZZZ")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateKey_Duplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &model.LicenseKey{KeyCode: "ATLAS-AAAA-BBBB", DurationHours: 1}
	if err := s.CreateKey(ctx, first); err != nil {
		t.Fatalf("CreateKey: %v", err)
	}

	dup := &model.LicenseKey{KeyCode: "ATLAS-AAAA-BBBB", DurationHours: 1}
	if err := s.CreateKey(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}

func TestListKeys_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	codes := []string{"ATLAS-0001-0001", "ATLAS-0002-0002", "ATLAS-0003-0003"}
	for _, c := range codes {
		if err := s.CreateKey(ctx, &model.LicenseKey{KeyCode: c, DurationHours: 24}); err != nil {
			t.Fatalf("CreateKey %s: %v", c, err)
		}
	}

	keys, err := s.ListKeys(ctx)
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(keys) != 3 {
		t.Fatalf("len = %d, want 3", len(keys))
	}
	// Inserts happen within the same second; the id tiebreaker keeps the
	// newest-first order deterministic.
	for i, want := range []string{"ATLAS-0003-0003", "ATLAS-0002-0002", "ATLAS-0001-0001"} {
		if keys[i].KeyCode != want {
			t.Errorf("keys[%d] = %s, want %s", i, keys[i].KeyCode, want)
		}
	}
}

func TestBindKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	key := &model.LicenseKey{KeyCode: "ATLAS-BIND-TEST", DurationHours: 24}
	if err := s.CreateKey(ctx, key); err != nil {
		t.Fatalf("CreateKey: %v", err)
	}

	firstUsed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	won, err := s.BindKey(ctx, key.ID, "1.2.3.4", firstUsed)
	if err != nil {
		t.Fatalf("BindKey: %v", err)
	}
	if !won {
		t.Fatal("expected first bind to win")
	}

	got, err := s.GetKeyByCode(ctx, "ATLAS-BIND-TEST")
	if err != nil {
		t.Fatalf("GetKeyByCode: %v", err)
	}
	if got.UsedByIP != "1.2.3.4" {
		t.Errorf("UsedByIP = %q, want 1.2.3.4", got.UsedByIP)
	}
	if got.FirstUsedAt == nil || !got.FirstUsedAt.Equal(firstUsed) {
		t.Errorf("FirstUsedAt = %v, want %v", got.FirstUsedAt, firstUsed)
	}
}

func TestBindKey_CompareAndSet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	key := &model.LicenseKey{KeyCode: "ATLAS-RACE-TEST", DurationHours: 24}
	if err := s.CreateKey(ctx, key); err != nil {
		t.Fatalf("CreateKey: %v", err)
	}

	now := time.Now().UTC()
	won, err := s.BindKey(ctx, key.ID, "1.2.3.4", now)
	if err != nil || !won {
		t.Fatalf("first bind: won=%v err=%v", won, err)
	}

	// A second bind must lose: the update only applies while unbound.
	won, err = s.BindKey(ctx, key.ID, "5.6.7.8", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("second bind: %v", err)
	}
	if won {
		t.Error("second bind must not overwrite the first")
	}

	got, err := s.GetKeyByCode(ctx, "ATLAS-RACE-TEST")
	if err != nil {
		t.Fatalf("GetKeyByCode: %v", err)
	}
	if got.UsedByIP != "1.2.3.4" {
		t.Errorf("UsedByIP = %q, want the original binding to survive", got.UsedByIP)
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open("mongodb", "whatever"); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"postgres unique", &pgconn.PgError{Code: "23505"}, true},
		{"postgres wrapped", fmt.Errorf("insert key: %w", &pgconn.PgError{Code: "23505"}), true},
		{"postgres other", &pgconn.PgError{Code: "23503"}, false},
		{"mysql dup entry", &mysql.MySQLError{Number: 1062}, true},
		{"mysql other", &mysql.MySQLError{Number: 1452}, false},
		{"sqlite text", errors.New("constraint failed: UNIQUE constraint failed: license_keys.key_code (2067)"), true},
		{"unrelated", errors.New("connection reset by peer"), false},
	}

	for _, tt := range tests {
		if got := isUniqueViolation(tt.err); got != tt.want {
			t.Errorf("%s: isUniqueViolation = %v, want %v", tt.name, got, tt.want)
		}
	}
}
