package domain

import (
	"errors"
	"testing"
)

func TestOrder_Validate(t *testing.T) {
	tests := []struct {
		name     string
		quantity int64
		wantErr  bool
	}{
		{"positive", 10, false},
		{"one", 1, false},
		{"zero", 0, true},
		{"negative", -5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Order{Price: 100, Quantity: tt.quantity}.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidOrder) {
				t.Errorf("Validate() = %v, want ErrInvalidOrder", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestSide_Valid(t *testing.T) {
	if !SideBid.Valid() || !SideAsk.Valid() {
		t.Error("bid and ask should be valid sides")
	}
	if Side("buy").Valid() {
		t.Error("\"buy\" should not be a valid side")
	}
}
