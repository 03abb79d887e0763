package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateLines_RoundsBeforeChecking(t *testing.T) {
	tests := []struct {
		name     string
		quantity string
		wantErr  bool
		wantQty  string
	}{
		{"rounds to four places", "2.00008", false, "2.0001"},
		{"rounds to zero and is rejected", "0.00004", true, "0"},
		{"smallest stored quantity", "0.00005", false, "0.0001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := []LineItem{{Description: "Framing", Quantity: decimal.RequireFromString(tt.quantity), UnitPrice: decimal.NewFromInt(10)}}
			err := validateLines(lines)
			if tt.wantErr != (err != nil) {
				t.Fatalf("validateLines(%s) error = %v, wantErr %v", tt.quantity, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
			if !lines[0].Quantity.Equal(decimal.RequireFromString(tt.wantQty)) {
				t.Errorf("quantity = %s, want %s", lines[0].Quantity, tt.wantQty)
			}
		})
	}
}
