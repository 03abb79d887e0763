package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"commandx/internal/core"
)

func TestNilClientIsNoop(t *testing.T) {
	var c *Client
	ctx := context.Background()

	if cs, ok, err := c.GetSettings(ctx, 1); cs != nil || ok || err != nil {
		t.Errorf("GetSettings on nil client = %v, %v, %v", cs, ok, err)
	}
	if err := c.SetSettings(ctx, &core.CompanySettings{CompanyID: 1}); err != nil {
		t.Errorf("SetSettings: %v", err)
	}
	if err := c.InvalidateSettings(ctx, 1); err != nil {
		t.Errorf("InvalidateSettings: %v", err)
	}
	release, err := c.Obtain(ctx, "numbering:1:EST")
	if err != nil {
		t.Fatalf("Obtain: %v", err)
	}
	release()
	if err := c.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestConnect_RequiresAddress(t *testing.T) {
	if _, err := Connect(context.Background(), Options{}); err == nil {
		t.Error("expected error without an address")
	}
}

func TestSettingsKey(t *testing.T) {
	if got := settingsKey(42); got != "company:42:settings" {
		t.Errorf("unexpected key %q", got)
	}
}

// TestRedisRoundTrip needs a live redis; set TEST_REDIS_ADDRESS to run it.
func TestRedisRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDRESS")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDRESS not set, skipping redis test")
	}

	ctx := context.Background()
	c, err := Connect(ctx, Options{Addr: addr, SettingsTTL: time.Minute, LockTTL: 2 * time.Second})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	const companyID = 987654
	_ = c.InvalidateSettings(ctx, companyID)

	want := &core.CompanySettings{
		CompanyID:           companyID,
		LockedPeriodEnabled: true,
		DefaultTaxRate:      decimal.RequireFromString("0.0825"),
		Timezone:            "America/Chicago",
	}
	if err := c.SetSettings(ctx, want); err != nil {
		t.Fatalf("SetSettings: %v", err)
	}
	got, ok, err := c.GetSettings(ctx, companyID)
	if err != nil || !ok {
		t.Fatalf("GetSettings = %v, %v", ok, err)
	}
	if !got.DefaultTaxRate.Equal(want.DefaultTaxRate) || got.Timezone != want.Timezone || !got.LockedPeriodEnabled {
		t.Errorf("round trip mismatch: %+v", got)
	}

	if err := c.InvalidateSettings(ctx, companyID); err != nil {
		t.Fatalf("InvalidateSettings: %v", err)
	}
	if _, ok, _ := c.GetSettings(ctx, companyID); ok {
		t.Error("expected miss after invalidation")
	}

	release, err := c.Obtain(ctx, "numbering:test:EST")
	if err != nil {
		t.Fatalf("Obtain: %v", err)
	}
	release()
	release2, err := c.Obtain(ctx, "numbering:test:EST")
	if err != nil {
		t.Fatalf("Obtain after release: %v", err)
	}
	release2()
}
