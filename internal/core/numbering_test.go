package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"commandx/internal/core"
)

func TestFormatAndParseDocumentNumber(t *testing.T) {
	if got := core.FormatDocumentNumber("INV", 42); got != "INV-00042" {
		t.Errorf("expected INV-00042, got %s", got)
	}
	if got := core.FormatDocumentNumber("PO", 123456); got != "PO-123456" {
		t.Errorf("expected PO-123456, got %s", got)
	}

	tests := []struct {
		prefix, number string
		want           int64
		ok             bool
	}{
		{"INV", "INV-00042", 42, true},
		{"PO", "PO-123456", 123456, true},
		{"INV", "EST-00042", 0, false},
		{"INV", "INV-1700000000000", 0, false},
		{"INV", "INV-1234567890", 0, false},
		{"INV", "INV-ABC", 0, false},
		{"INV", "XINV-00042", 0, false},
		{"INV", "INV-00042-A", 0, false},
		{"PO", "PO-000000001", 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			n, ok := core.ParseNumberSuffix(tt.prefix, tt.number)
			if ok != tt.ok || n != tt.want {
				t.Errorf("ParseNumberSuffix(%s, %s) = %d, %v; want %d, %v", tt.prefix, tt.number, n, ok, tt.want, tt.ok)
			}
		})
	}
}

func takenSet(numbers ...string) core.NumberExistsFunc {
	taken := make(map[string]bool, len(numbers))
	for _, n := range numbers {
		taken[n] = true
	}
	return func(_ context.Context, number string) (bool, error) {
		return taken[number], nil
	}
}

func TestNextDocumentNumber(t *testing.T) {
	ctx := context.Background()
	now := func() time.Time { return time.UnixMilli(1700000000000) }

	t.Run("FirstNumber", func(t *testing.T) {
		got, err := core.NextDocumentNumber(ctx, "EST", 0, takenSet(), now)
		if err != nil {
			t.Fatalf("NextDocumentNumber: %v", err)
		}
		if got != "EST-00001" {
			t.Errorf("expected EST-00001, got %s", got)
		}
	})

	t.Run("SkipsCollisions", func(t *testing.T) {
		got, err := core.NextDocumentNumber(ctx, "EST", 5, takenSet("EST-00006", "EST-00007"), now)
		if err != nil {
			t.Fatalf("NextDocumentNumber: %v", err)
		}
		if got != "EST-00008" {
			t.Errorf("expected EST-00008, got %s", got)
		}
	})

	t.Run("FallsBackAfterMaxAttempts", func(t *testing.T) {
		calls := 0
		allTaken := func(context.Context, string) (bool, error) {
			calls++
			return true, nil
		}
		got, err := core.NextDocumentNumber(ctx, "JO", 10, allTaken, now)
		if err != nil {
			t.Fatalf("NextDocumentNumber: %v", err)
		}
		if got != "JO-1700000000000" {
			t.Errorf("expected timestamp fallback, got %s", got)
		}
		if calls != core.MaxNumberAttempts {
			t.Errorf("expected %d attempts, got %d", core.MaxNumberAttempts, calls)
		}
	})

	t.Run("PropagatesLookupError", func(t *testing.T) {
		boom := errors.New("connection reset")
		failing := func(context.Context, string) (bool, error) { return false, boom }
		if _, err := core.NextDocumentNumber(ctx, "VB", 0, failing, now); !errors.Is(err, boom) {
			t.Errorf("expected wrapped lookup error, got %v", err)
		}
	})
}

func TestSequenceByPrefix(t *testing.T) {
	seq, ok := core.SequenceByPrefix("inv")
	if !ok || seq != core.InvoiceNumbers {
		t.Errorf("expected invoice sequence, got %+v, %v", seq, ok)
	}
	if seq, ok := core.SequenceByPrefix("CO"); !ok || seq.Table != "change_orders" {
		t.Errorf("expected change order sequence, got %+v, %v", seq, ok)
	}
	if _, ok := core.SequenceByPrefix("XYZ"); ok {
		t.Error("expected unknown prefix to miss")
	}
}

type fakeLocker struct {
	keys     []string
	released int
	err      error
}

func (l *fakeLocker) Obtain(_ context.Context, key string) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.keys = append(l.keys, key)
	return func() { l.released++ }, nil
}

func TestNumberGenerator_Lock(t *testing.T) {
	ctx := context.Background()

	t.Run("WithoutLocker", func(t *testing.T) {
		release, err := core.NewNumberGenerator(nil).Lock(ctx, 1, core.EstimateNumbers)
		if err != nil {
			t.Fatalf("Lock: %v", err)
		}
		release()
	})

	t.Run("KeyIsPerCompanyAndPrefix", func(t *testing.T) {
		l := &fakeLocker{}
		release, err := core.NewNumberGenerator(l).Lock(ctx, 7, core.PurchaseOrderNumbers)
		if err != nil {
			t.Fatalf("Lock: %v", err)
		}
		release()
		if len(l.keys) != 1 || l.keys[0] != "numbering:7:PO" {
			t.Errorf("unexpected lock keys %v", l.keys)
		}
		if l.released != 1 {
			t.Errorf("expected one release, got %d", l.released)
		}
	})

	t.Run("LockFailure", func(t *testing.T) {
		busy := errors.New("busy")
		release, err := core.NewNumberGenerator(&fakeLocker{err: busy}).Lock(ctx, 1, core.InvoiceNumbers)
		if !errors.Is(err, busy) {
			t.Fatalf("expected wrapped lock error, got %v", err)
		}
		release()
	})
}
