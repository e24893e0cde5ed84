package manifest

import "github.com/LEA-Blockchain/ltm/addr"

// ResolveAddressLiteral resolves a manifest-style address reference —
// an alias, a constant name, a raw literal bech32m/hex address, or any
// of those wrapped in `$addr(...)` — into its canonical 32-byte form.
// It reuses the same alias map and decoding rules as the resolver's
// Pass 4/5, so the execution-result decoder's schema keys resolve to
// identical addresses as the manifest's own `$addr(...)` references
// (spec.md §4.7).
func ResolveAddressLiteral(ref string, aliasMap map[string]string, hrp string) (addr.Address, error) {
	if m := reAddr.FindStringSubmatch(ref); m != nil {
		ref = m[1]
	}
	lit := resolveAddrRef(ref, aliasMap)
	return decodeAddressLiteral(lit, hrp)
}
