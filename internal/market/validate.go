package market

import (
	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// IsValidAddress reports whether s decodes to a 32-byte base58 key, the
// shape of every Solana account address.
func IsValidAddress(s string) bool {
	if len(s) < 32 || len(s) > 44 {
		return false
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return false
	}
	return len(raw) == 32
}

// IsOnCurve reports whether the address decodes to a point on the ed25519
// curve. Wallet keys are on-curve; program-derived addresses (pools, vaults,
// bonding curves) are not. Feeds occasionally hand back a pool address where
// a mint belongs; this catches that class of garbage.
func IsOnCurve(s string) bool {
	raw, err := base58.Decode(s)
	if err != nil || len(raw) != 32 {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err == nil
}
