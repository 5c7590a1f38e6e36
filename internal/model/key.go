package model

import "time"

// UnlimitedDuration is the sentinel duration meaning a key never expires.
const UnlimitedDuration int64 = -1

// LicenseKey is the sole persisted entity: one row per issued license key.
// A key is mutated exactly once, at first successful verification, when it
// is bound to the requester's IP address. It is never deleted or re-bound.
type LicenseKey struct {
	ID            int64      `json:"id"`
	KeyCode       string     `json:"key_code"`
	Name          string     `json:"name"`
	DurationHours int64      `json:"duration_hours"`
	UsedByIP      string     `json:"used_by_ip,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	FirstUsedAt   *time.Time `json:"first_used_at,omitempty"`
}

// Bound reports whether the key has been claimed by a device.
func (k LicenseKey) Bound() bool {
	return k.UsedByIP != ""
}

// Unlimited reports whether the key has no expiry window.
func (k LicenseKey) Unlimited() bool {
	return k.DurationHours == UnlimitedDuration
}
