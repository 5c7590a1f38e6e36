package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestLicenseKey_Bound(t *testing.T) {
	k := LicenseKey{}
	if k.Bound() {
		t.Error("key without used_by_ip must be unbound")
	}
	k.UsedByIP = "1.2.3.4"
	if !k.Bound() {
		t.Error("key with used_by_ip must be bound")
	}
}

func TestLicenseKey_Unlimited(t *testing.T) {
	if (LicenseKey{DurationHours: 24}).Unlimited() {
		t.Error("24h key is not unlimited")
	}
	if !(LicenseKey{DurationHours: UnlimitedDuration}).Unlimited() {
		t.Error("-1 key is unlimited")
	}
	if (LicenseKey{DurationHours: 0}).Unlimited() {
		t.Error("0h key is not unlimited")
	}
}

func TestLicenseKey_JSONOmitsUnsetBinding(t *testing.T) {
	k := LicenseKey{
		ID:            1,
		KeyCode:       "ATLAS-AB12-CD34",
		DurationHours: 24,
		CreatedAt:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(k)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "used_by_ip") || strings.Contains(out, "first_used_at") {
		t.Errorf("unbound key must omit binding fields: %s", out)
	}
	if !strings.Contains(out, `"key_code":"ATLAS-AB12-CD34"`) {
		t.Errorf("missing key_code: %s", out)
	}
}
