package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atlasgate/atlasgate/internal/model"
	"github.com/atlasgate/atlasgate/internal/store"
)

var (
	// ErrInvalidKey means no key record matches the presented code.
	ErrInvalidKey = errors.New("invalid key")

	// ErrDeviceMismatch means the key is permanently bound to a different
	// IP address. There is no re-binding mechanism.
	ErrDeviceMismatch = errors.New("device mismatch")

	// ErrExpired means the key's validity window has elapsed since first use.
	ErrExpired = errors.New("expired")

	// ErrInvalidDuration rejects issuance of a key whose window is below the
	// unlimited sentinel. Such a key would expire on its very first use.
	ErrInvalidDuration = errors.New("invalid duration")
)

const (
	codePrefix    = "ATLAS"
	codeAlphabet  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	segmentLength = 4

	// maxIssueAttempts bounds code regeneration on key_code collisions.
	// The segment space is 36^8, so more than one retry is already rare.
	maxIssueAttempts = 5
)

// LicenseService owns the key lifecycle: issuing new codes, deciding whether
// a presented code grants access, and listing issued keys.
type LicenseService struct {
	store *store.Store
}

// NewLicenseService creates a LicenseService backed by the given key store.
func NewLicenseService(st *store.Store) *LicenseService {
	return &LicenseService{store: st}
}

// Verify decides whether keyCode grants access to the requester at now.
// A nil return means access is granted. The first successful verification
// binds the key to requesterIP and starts its validity window; because the
// same call's now becomes first_used_at, a key's first use can never itself
// be expired. Bound keys presented from any other address fail with
// ErrDeviceMismatch before expiry is even considered.
func (s *LicenseService) Verify(ctx context.Context, keyCode, requesterIP string, now time.Time) error {
	now = now.UTC()

	key, err := s.store.GetKeyByCode(ctx, keyCode)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidKey
		}
		return err
	}

	if key.Bound() && key.UsedByIP != requesterIP {
		return ErrDeviceMismatch
	}

	if !key.Bound() {
		won, err := s.store.BindKey(ctx, key.ID, requesterIP, now)
		if err != nil {
			return err
		}
		if won {
			key.UsedByIP = requesterIP
			key.FirstUsedAt = &now
		} else {
			// Lost a concurrent first-use race. Re-read the winner's
			// binding and apply the mismatch rule against it.
			key, err = s.store.GetKeyByCode(ctx, keyCode)
			if err != nil {
				return err
			}
			if key.UsedByIP != requesterIP {
				return ErrDeviceMismatch
			}
		}
	}

	// Expiry is skipped for unlimited keys and, defensively, for bound rows
	// missing a first-use timestamp: a malformed record must never lock out
	// its holder.
	if key.Unlimited() || key.FirstUsedAt == nil {
		return nil
	}

	if now.Sub(*key.FirstUsedAt) > time.Duration(key.DurationHours)*time.Hour {
		return ErrExpired
	}
	return nil
}

// Issue generates a fresh unique key code and persists an unbound record
// with the given label and validity window (model.UnlimitedDuration for no
// expiry). Durations below the sentinel are rejected with ErrInvalidDuration.
// Code collisions are retried with a regenerated code; exhausting the retry
// budget surfaces the storage error.
func (s *LicenseService) Issue(ctx context.Context, name string, durationHours int64) (*model.LicenseKey, error) {
	if durationHours < model.UnlimitedDuration {
		return nil, ErrInvalidDuration
	}

	var lastErr error
	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		code, err := generateCode()
		if err != nil {
			return nil, fmt.Errorf("generate key code: %w", err)
		}

		key := &model.LicenseKey{
			KeyCode:       code,
			Name:          name,
			DurationHours: durationHours,
		}
		err = s.store.CreateKey(ctx, key)
		if err == nil {
			return key, nil
		}
		if !errors.Is(err, store.ErrDuplicate) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("issue key after %d attempts: %w", maxIssueAttempts, lastErr)
}

// List returns all issued keys, newest first.
func (s *LicenseService) List(ctx context.Context) ([]model.LicenseKey, error) {
	return s.store.ListKeys(ctx)
}

// generateCode produces a code of the form ATLAS-XXXX-XXXX, each segment
// drawn uniformly from uppercase alphanumerics via crypto/rand.
func generateCode() (string, error) {
	seg1, err := randomSegment()
	if err != nil {
		return "", err
	}
	seg2, err := randomSegment()
	if err != nil {
		return "", err
	}
	return codePrefix + "-" + seg1 + "-" + seg2, nil
}

func randomSegment() (string, error) {
	// Rejection sampling keeps the draw uniform: 252 is the largest
	// multiple of len(codeAlphabet) below 256.
	const limit = byte(252)

	var b strings.Builder
	buf := make([]byte, 1)
	for b.Len() < segmentLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		if buf[0] >= limit {
			continue
		}
		b.WriteByte(codeAlphabet[int(buf[0])%len(codeAlphabet)])
	}
	return b.String(), nil
}
