// Package addr implements the Lea address codec: conversions between
// raw 32-byte addresses, lowercase hex, and Bech32m strings under a
// fixed human-readable prefix (spec.md §4.2).
package addr

import (
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"

	"github.com/LEA-Blockchain/ltm/ltmerr"
)

// Size is the fixed length, in bytes, of every Lea address.
const Size = 32

// DefaultHRP is the human-readable part used by the reference network.
const DefaultHRP = "lea"

// Address is a raw 32-byte address. Equality is byte-equal.
type Address [Size]byte

// FromHex decodes a lowercase- or uppercase-hex address, with an
// optional "0x" prefix, rejecting odd lengths and non-hex characters.
func FromHex(s string) (Address, error) {
	var out Address
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s)%2 != 0 {
		return out, ltmerr.New(ltmerr.CodeBadAddress, "hex address has odd length")
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return out, ltmerr.Newf(ltmerr.CodeBadAddress, "invalid hex address: %v", err)
	}
	if len(raw) != Size {
		return out, ltmerr.Newf(ltmerr.CodeBadAddress, "address must be %d bytes, got %d", Size, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// ToHex returns the lowercase hex encoding of a, with no prefix.
func (a Address) ToHex() string {
	return hex.EncodeToString(a[:])
}

// FromBech32 decodes a Bech32m string under hrp into a raw address.
// Non-Bech32m checksums (including plain Bech32) are rejected.
func FromBech32(s string, hrp string) (Address, error) {
	var out Address
	gotHRP, data, encoding, err := bech32.DecodeGeneric(s)
	if err != nil {
		return out, ltmerr.Newf(ltmerr.CodeBadAddress, "bech32m decode failed: %v", err)
	}
	if encoding != bech32.Bech32m {
		return out, ltmerr.New(ltmerr.CodeBadAddress, "address checksum is not bech32m")
	}
	if gotHRP != hrp {
		return out, ltmerr.Newf(ltmerr.CodeBadAddress, "unexpected hrp %q, want %q", gotHRP, hrp)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return out, ltmerr.Newf(ltmerr.CodeBadAddress, "bech32m bit regrouping failed: %v", err)
	}
	if len(raw) != Size {
		return out, ltmerr.Newf(ltmerr.CodeBadAddress, "address must be %d bytes, got %d", Size, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// ToBech32 encodes a under hrp as a Bech32m string, regrouping the 32
// raw bytes directly into 5-bit groups with no witness-version byte.
func (a Address) ToBech32(hrp string) (string, error) {
	data, err := bech32.ConvertBits(a[:], 8, 5, true)
	if err != nil {
		return "", ltmerr.Newf(ltmerr.CodeBadAddress, "bech32m bit regrouping failed: %v", err)
	}
	s, err := bech32.EncodeM(hrp, data)
	if err != nil {
		return "", ltmerr.Newf(ltmerr.CodeBadAddress, "bech32m encode failed: %v", err)
	}
	return s, nil
}

// Less reports whether a sorts strictly before b under lexicographic
// byte order — the only ordering used anywhere in address-table
// canonicalization (spec.md §4.4).
func (a Address) Less(b Address) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Equal reports byte-equality.
func (a Address) Equal(b Address) bool { return a == b }
