// Package manifest implements the Lea manifest tree model and the
// five-pass resolver that lowers an authoring manifest into its
// canonical resolved form (spec.md §3, §4.4).
package manifest

import (
	"encoding/json"
	"math/big"
	"regexp"

	"github.com/LEA-Blockchain/ltm/ltmerr"
)

// Bytes is a raw byte-array leaf, injected by the pubset substitution
// pass. It is never recursed into — byte arrays are always leaves
// (spec.md §9 "Recursive substitution over a heterogenous tree").
type Bytes []byte

// jsonNumber aliases json.Number, the decoder's lossless
// representation for manifest integers that may exceed 2^53
// (produced by parsing with (*json.Decoder).UseNumber).
type jsonNumber = json.Number

var (
	reConst   = regexp.MustCompile(`^\$const\((.+)\)$`)
	reAddr    = regexp.MustCompile(`^\$addr\((.+)\)$`)
	rePubset  = regexp.MustCompile(`^\$pubset\((.+)\)$`)
	reKeyset  = regexp.MustCompile(`^\$keyset\((.+)\)$`)
)

// substituteFunc is applied to every string leaf during a tree walk.
// It returns (replacement, true, nil) when the string matched and was
// substituted, or (nil, false, nil) to leave the leaf untouched.
type substituteFunc func(s string) (any, bool, error)

// deepSubstitute recursively applies f to every string leaf of node,
// rebuilding maps and slices and passing every other leaf kind
// (numbers, bools, nil, Bytes) through unchanged.
func deepSubstitute(node any, f substituteFunc) (any, error) {
	switch n := node.(type) {
	case string:
		repl, matched, err := f(n)
		if err != nil {
			return nil, err
		}
		if matched {
			return repl, nil
		}
		return n, nil
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, v := range n {
			nv, err := deepSubstitute(v, f)
			if err != nil {
				return nil, err
			}
			out[k] = nv
		}
		return out, nil
	case []any:
		out := make([]any, len(n))
		for i, v := range n {
			nv, err := deepSubstitute(v, f)
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	default:
		return node, nil
	}
}

// walkManifestTop applies deepSubstitute to every top-level field of a
// manifest object except "signers", whose subtree is never traversed
// (spec.md §4.4 Pass 1).
func walkManifestTop(m map[string]any, f substituteFunc) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if k == "signers" {
			out[k] = v
			continue
		}
		nv, err := deepSubstitute(v, f)
		if err != nil {
			return nil, err
		}
		out[k] = nv
	}
	return out, nil
}

// toBigInt parses a manifest numeric leaf — a JSON number (json.Number)
// or a JSON string of digits — into an arbitrary-precision integer
// (spec.md §9 "Big integer policy").
func toBigInt(v any, allowNegative bool) (*big.Int, error) {
	var s string
	switch t := v.(type) {
	case jsonNumber:
		s = string(t)
	case string:
		s = t
	default:
		return nil, ltmerr.Newf(ltmerr.CodeBadAddress, "expected a numeric value, got %T", v)
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, ltmerr.Newf(ltmerr.CodeBadAddress, "invalid integer literal %q", s)
	}
	if !allowNegative && n.Sign() < 0 {
		return nil, ltmerr.Newf(ltmerr.CodeBadAddress, "integer literal %q must be non-negative", s)
	}
	return n, nil
}

// resolveAddrRef resolves a $addr(...) inner reference through the
// alias map, falling back to treating ref itself as the literal
// address string when it is not a known alias (spec.md §4.4 Pass 4).
// A constant may itself resolve to another alias name rather than a
// literal address directly, so the lookup chases the alias chain to a
// fixed point (bounded to guard against a cycle between aliases).
func resolveAddrRef(ref string, aliasMap map[string]string) string {
	seen := map[string]bool{}
	for {
		lit, ok := aliasMap[ref]
		if !ok || seen[ref] {
			return ref
		}
		seen[ref] = true
		ref = lit
	}
}
