package manifest

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/pkg/errors"

	"github.com/LEA-Blockchain/ltm/addr"
	"github.com/LEA-Blockchain/ltm/keyset"
	"github.com/LEA-Blockchain/ltm/ltmerr"
)

// ResolvedInstruction is one lowered instruction-vector entry
// (spec.md §4.1).
type ResolvedInstruction struct {
	Kind    string // "uleb", "sleb", "vector", "INLINE"
	Uleb    *big.Int
	Sleb    *big.Int
	Vector  []byte
	Inline  []byte
	Comment string
}

// ResolvedInvocation is one lowered invocation (spec.md §4.1).
type ResolvedInvocation struct {
	TargetAddress int
	Instructions  []ResolvedInstruction
}

// Resolved is the fully lowered manifest, ready for txcodec to encode
// (spec.md §4.4 "Canonical Output").
type Resolved struct {
	Pod         addr.Address
	Sequence    *big.Int
	GasLimit    *big.Int
	GasPrice    *big.Int
	Addresses   []addr.Address
	Invocations []ResolvedInvocation
	Signed      bool
	FeePayer    int
	Signers     map[string]*keyset.KeySet
	// SignerKeys holds the keysets owning Addresses[0:len(SignerKeys)], in
	// table order (fee payer first), for the encoder to sign with.
	SignerKeys []*keyset.KeySet
	// AliasMap is the Pass 3 alias → literal-address-string table,
	// exposed so the execution-result decoder can resolve its own
	// schema keys through the identical alias resolution rules.
	AliasMap map[string]string
	// HRP is the human-readable part this resolution used, carried
	// alongside AliasMap for downstream address decoding.
	HRP string
}

// Options configures a single Resolve call.
type Options struct {
	// HRP overrides the bech32m human-readable part used when decoding
	// and re-encoding literal addresses. Defaults to addr.DefaultHRP.
	HRP string
}

var defaultPodValue = addr.Address{
	0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11,
	0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11,
	0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11,
	0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11, 0x11,
}

// Resolve runs the five-pass resolver over raw (a manifest object
// decoded with a json.Decoder configured via UseNumber) using the
// already-loaded signer keysets, producing the canonical Resolved
// form (spec.md §4.4).
func Resolve(raw map[string]any, signers map[string]*keyset.KeySet, opts Options) (*Resolved, error) {
	hrp := opts.HRP
	if hrp == "" {
		hrp = addr.DefaultHRP
	}

	// Pass 1: constants substitution.
	rawConsts, _ := raw["constants"].(map[string]any)
	if rawConsts == nil {
		rawConsts = map[string]any{}
	}
	resolvedConsts := map[string]any{}
	resolving := map[string]bool{}
	for name := range rawConsts {
		if _, err := resolveConst(name, rawConsts, resolvedConsts, resolving); err != nil {
			return nil, err
		}
	}
	tree, err := walkManifestTop(raw, func(s string) (any, bool, error) {
		m := reConst.FindStringSubmatch(s)
		if m == nil {
			return nil, false, nil
		}
		name := m[1]
		v, ok := resolvedConsts[name]
		if !ok {
			return nil, false, ltmerr.Newf(ltmerr.CodeUnknownConstant, "unknown constant %q", name)
		}
		return v, true, nil
	})
	if err != nil {
		return nil, err
	}

	// Pass 2: pubset substitution.
	tree, err = walkManifestTop(tree, func(s string) (any, bool, error) {
		m := rePubset.FindStringSubmatch(s)
		if m == nil {
			return nil, false, nil
		}
		name := m[1]
		ks, ok := signers[name]
		if !ok {
			return nil, false, ltmerr.Newf(ltmerr.CodeUnknownSigner, "unknown signer %q in $pubset", name)
		}
		blob, err := ks.Pubset()
		if err != nil {
			return nil, false, err
		}
		return Bytes(blob), true, nil
	})
	if err != nil {
		return nil, err
	}

	// Pass 3: alias map construction (signer aliases + string constants).
	aliasMap := map[string]string{}
	for alias, ks := range signers {
		bech, err := ks.Address.ToBech32(hrp)
		if err != nil {
			return nil, err
		}
		aliasMap[alias] = bech
	}
	for name, v := range resolvedConsts {
		if s, ok := v.(string); ok {
			aliasMap[name] = s
		}
	}

	// Pass 4: literal address collection.
	collected := map[string]struct{}{}
	if _, err := walkManifestTop(tree, func(s string) (any, bool, error) {
		m := reAddr.FindStringSubmatch(s)
		if m == nil {
			return nil, false, nil
		}
		lit := resolveAddrRef(m[1], aliasMap)
		collected[lit] = struct{}{}
		return nil, false, nil
	}); err != nil {
		return nil, err
	}

	litToAddr := map[string]addr.Address{}
	for lit := range collected {
		a, err := decodeAddressLiteral(lit, hrp)
		if err != nil {
			return nil, err
		}
		litToAddr[lit] = a
	}

	// Pass 5: canonical ordering.
	signed := len(signers) > 0
	var table []addr.Address
	byteSet := map[addr.Address]struct{}{}
	feePayerIdx := -1

	var signerKeys []*keyset.KeySet
	if signed {
		feePayerAlias, _ := tree["feePayer"].(string)
		if feePayerAlias == "" {
			return nil, ltmerr.New(ltmerr.CodeMissingFeePayer, "feePayer is required for a signed transaction")
		}
		feePayerKS, ok := signers[feePayerAlias]
		if !ok {
			return nil, ltmerr.Newf(ltmerr.CodeUnknownFeePayer, "feePayer alias %q has no loaded signer", feePayerAlias)
		}
		table = append(table, feePayerKS.Address)
		byteSet[feePayerKS.Address] = struct{}{}
		signerKeys = append(signerKeys, feePayerKS)

		var others []*keyset.KeySet
		for alias, ks := range signers {
			if alias == feePayerAlias {
				continue
			}
			others = append(others, ks)
		}
		sort.Slice(others, func(i, j int) bool { return others[i].Address.Less(others[j].Address) })
		for _, ks := range others {
			table = append(table, ks.Address)
			byteSet[ks.Address] = struct{}{}
			signerKeys = append(signerKeys, ks)
		}
		feePayerIdx = 0
	}

	var nonSigners []addr.Address
	for _, a := range litToAddr {
		if _, isSigner := byteSet[a]; isSigner {
			continue
		}
		nonSigners = append(nonSigners, a)
		byteSet[a] = struct{}{}
	}
	sort.Slice(nonSigners, func(i, j int) bool { return nonSigners[i].Less(nonSigners[j]) })
	// Dedup while preserving the sorted order.
	dedup := nonSigners[:0]
	var prev *addr.Address
	for i := range nonSigners {
		a := nonSigners[i]
		if prev != nil && *prev == a {
			continue
		}
		dedup = append(dedup, a)
		p := a
		prev = &p
	}
	table = append(table, dedup...)

	byteToIndex := map[addr.Address]int{}
	for i, a := range table {
		byteToIndex[a] = i
	}
	litToIndex := map[string]int{}
	for lit, a := range litToAddr {
		litToIndex[lit] = byteToIndex[a]
	}

	resolved := &Resolved{
		Addresses:  table,
		Signed:     signed,
		FeePayer:   feePayerIdx,
		Signers:    signers,
		SignerKeys: signerKeys,
		AliasMap:   aliasMap,
		HRP:        hrp,
	}

	if podRaw, ok := tree["pod"]; ok {
		podStr, _ := podRaw.(string)
		if podStr == "" {
			return nil, ltmerr.New(ltmerr.CodeBadAddress, "pod must be a hex string when present")
		}
		a, err := addr.FromHex(podStr)
		if err != nil {
			return nil, err
		}
		resolved.Pod = a
	} else {
		resolved.Pod = defaultPodValue
	}

	seq, err := requireBigInt(tree, "sequence")
	if err != nil {
		return nil, err
	}
	resolved.Sequence = seq

	gasLimit, err := requireBigInt(tree, "gasLimit")
	if err != nil {
		return nil, err
	}
	resolved.GasLimit = gasLimit

	gasPrice, err := requireBigInt(tree, "gasPrice")
	if err != nil {
		return nil, err
	}
	resolved.GasPrice = gasPrice

	rawInvocations, _ := tree["invocations"].([]any)
	for i, rv := range rawInvocations {
		invMap, ok := rv.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("invocations[%d]: expected an object", i)
		}
		inv, err := resolveInvocation(invMap, aliasMap, litToIndex)
		if err != nil {
			return nil, errors.Wrapf(err, "invocations[%d]", i)
		}
		resolved.Invocations = append(resolved.Invocations, inv)
	}

	return resolved, nil
}

func requireBigInt(tree map[string]any, field string) (*big.Int, error) {
	v, ok := tree[field]
	if !ok {
		return nil, fmt.Errorf("manifest field %q is required", field)
	}
	return toBigInt(v, false)
}

func resolveConst(name string, raw map[string]any, resolved map[string]any, resolving map[string]bool) (any, error) {
	if v, ok := resolved[name]; ok {
		return v, nil
	}
	if resolving[name] {
		return nil, ltmerr.Newf(ltmerr.CodeUnknownConstant, "cycle detected resolving constant %q", name)
	}
	rawVal, ok := raw[name]
	if !ok {
		return nil, ltmerr.Newf(ltmerr.CodeUnknownConstant, "unknown constant %q", name)
	}
	resolving[name] = true
	val, err := deepSubstitute(rawVal, func(s string) (any, bool, error) {
		m := reConst.FindStringSubmatch(s)
		if m == nil {
			return nil, false, nil
		}
		v, err := resolveConst(m[1], raw, resolved, resolving)
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	})
	resolving[name] = false
	if err != nil {
		return nil, err
	}
	resolved[name] = val
	return val, nil
}

func decodeAddressLiteral(lit string, hrp string) (addr.Address, error) {
	if a, err := addr.FromBech32(lit, hrp); err == nil {
		return a, nil
	}
	if a, err := addr.FromHex(lit); err == nil {
		return a, nil
	}
	return addr.Address{}, ltmerr.Newf(ltmerr.CodeBadAddress, "literal address %q is neither valid bech32m(%s) nor hex", lit, hrp)
}

func resolveInvocation(invMap map[string]any, aliasMap map[string]string, litToIndex map[string]int) (ResolvedInvocation, error) {
	targetStr, _ := invMap["targetAddress"].(string)
	m := reAddr.FindStringSubmatch(targetStr)
	if m == nil {
		return ResolvedInvocation{}, ltmerr.Newf(ltmerr.CodeUnresolvedAddress, "targetAddress %q is not a $addr(...) directive", targetStr)
	}
	lit := resolveAddrRef(m[1], aliasMap)
	idx, ok := litToIndex[lit]
	if !ok {
		return ResolvedInvocation{}, ltmerr.Newf(ltmerr.CodeUnresolvedAddress, "targetAddress literal %q did not resolve to a table entry", lit)
	}

	rawInstrs, _ := invMap["instructions"].([]any)
	inv := ResolvedInvocation{TargetAddress: idx}
	for i, ri := range rawInstrs {
		instrMap, ok := ri.(map[string]any)
		if !ok {
			return ResolvedInvocation{}, fmt.Errorf("instructions[%d]: expected an object", i)
		}
		instr, err := resolveInstruction(instrMap, aliasMap, litToIndex)
		if err != nil {
			return ResolvedInvocation{}, errors.Wrapf(err, "instructions[%d]", i)
		}
		inv.Instructions = append(inv.Instructions, instr)
	}
	return inv, nil
}

func resolveInstruction(m map[string]any, aliasMap map[string]string, litToIndex map[string]int) (ResolvedInstruction, error) {
	comment, _ := m["comment"].(string)
	for k := range m {
		switch k {
		case "comment", "uleb", "sleb", "vector", "INLINE":
		default:
			return ResolvedInstruction{}, ltmerr.Newf(ltmerr.CodeUnsupportedInstr, "unsupported instruction key %q", k)
		}
	}
	var kind string
	var value any
	for _, k := range []string{"uleb", "sleb", "vector", "INLINE"} {
		v, ok := m[k]
		if !ok {
			continue
		}
		if kind != "" {
			return ResolvedInstruction{}, ltmerr.Newf(ltmerr.CodeAmbiguousInstr, "instruction has both %q and %q", kind, k)
		}
		kind, value = k, v
	}
	if kind == "" {
		return ResolvedInstruction{}, ltmerr.New(ltmerr.CodeUnsupportedInstr, "instruction has no recognized kind (uleb, sleb, vector, INLINE)")
	}

	instr := ResolvedInstruction{Kind: kind, Comment: comment}
	switch kind {
	case "uleb":
		idx, matched, err := resolveOperandAddr(value, aliasMap, litToIndex)
		if err != nil {
			return ResolvedInstruction{}, err
		}
		if matched {
			instr.Uleb = big.NewInt(int64(idx))
			break
		}
		n, err := toBigInt(value, false)
		if err != nil {
			return ResolvedInstruction{}, err
		}
		instr.Uleb = n
	case "sleb":
		idx, matched, err := resolveOperandAddr(value, aliasMap, litToIndex)
		if err != nil {
			return ResolvedInstruction{}, err
		}
		if matched {
			instr.Sleb = big.NewInt(int64(idx))
			break
		}
		n, err := toBigInt(value, true)
		if err != nil {
			return ResolvedInstruction{}, err
		}
		instr.Sleb = n
	case "vector":
		idx, matched, err := resolveOperandAddr(value, aliasMap, litToIndex)
		if err != nil {
			return ResolvedInstruction{}, err
		}
		if matched {
			instr.Vector = big.NewInt(int64(idx)).Bytes()
			break
		}
		b, err := toByteSlice(value)
		if err != nil {
			return ResolvedInstruction{}, err
		}
		instr.Vector = b
	case "INLINE":
		b, ok := value.(Bytes)
		if !ok {
			return ResolvedInstruction{}, ltmerr.New(ltmerr.CodeInlineTypeMismatch, "INLINE instruction value must be raw bytes from $pubset(...)")
		}
		instr.Inline = []byte(b)
	}
	return instr, nil
}

// resolveOperandAddr recognizes a $addr(ref) directive in a uleb/sleb/
// vector operand value and lowers it to its address-table index, the
// same substitution targetAddress receives (spec.md §4.4 Pass 5 "every
// $addr(ref)", not only targetAddress).
func resolveOperandAddr(value any, aliasMap map[string]string, litToIndex map[string]int) (idx int, matched bool, err error) {
	s, ok := value.(string)
	if !ok {
		return 0, false, nil
	}
	m := reAddr.FindStringSubmatch(s)
	if m == nil {
		return 0, false, nil
	}
	lit := resolveAddrRef(m[1], aliasMap)
	idx, ok = litToIndex[lit]
	if !ok {
		return 0, false, ltmerr.Newf(ltmerr.CodeUnresolvedAddress, "operand literal %q did not resolve to a table entry", lit)
	}
	return idx, true, nil
}

// toByteSlice converts a vector instruction's value — either a raw
// Bytes leaf (from $pubset substitution) or a hex string — into bytes
// (spec.md §4.1 "value may be raw bytes or a hex string").
func toByteSlice(v any) ([]byte, error) {
	switch t := v.(type) {
	case Bytes:
		return []byte(t), nil
	case string:
		return hexDecode(t)
	default:
		return nil, ltmerr.Newf(ltmerr.CodeInlineTypeMismatch, "vector value must be bytes or a hex string, got %T", v)
	}
}
