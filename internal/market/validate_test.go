package market

import "testing"

func TestIsValidAddress(t *testing.T) {
	tests := []struct {
		name string
		addr string
		want bool
	}{
		// System program: canonical 32-byte key
		{"system program", "11111111111111111111111111111111", true},
		// Wrapped SOL mint
		{"wsol mint", "So11111111111111111111111111111111111111112", true},
		{"empty", "", false},
		{"too short", "abc", false},
		{"invalid base58", "0OIl+/=not-base58-at-all-0OIl+/=not-base58", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidAddress(tt.addr); got != tt.want {
				t.Errorf("IsValidAddress(%q) = %v, want %v", tt.addr, got, tt.want)
			}
		})
	}
}

func TestIsOnCurve(t *testing.T) {
	// The system program key (32 '1's decode to 32 zero bytes) is a valid
	// curve point encoding.
	if !IsOnCurve("11111111111111111111111111111111") {
		t.Error("expected the zero key to decode as a curve point")
	}
	// A keypair-generated SPL mint is on-curve by construction.
	if !IsOnCurve("DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263") {
		t.Error("expected a keypair mint to be on-curve")
	}
	// The Raydium AMM authority is a program-derived address, which is
	// off-curve by construction.
	if IsOnCurve("5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1") {
		t.Error("a PDA must not be on-curve")
	}
	if IsOnCurve("not-an-address") {
		t.Error("garbage must not be on-curve")
	}
}
