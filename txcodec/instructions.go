package txcodec

import (
	"math/big"

	"github.com/LEA-Blockchain/ltm/keyset"
	"github.com/LEA-Blockchain/ltm/ltmerr"
	"github.com/LEA-Blockchain/ltm/manifest"
	"github.com/LEA-Blockchain/ltm/tvf"
)

// encodeInstructions renders one invocation's instruction list into a
// nested TVF byte stream (spec.md §4.5 "Instruction encoding").
func encodeInstructions(instrs []manifest.ResolvedInstruction) ([]byte, error) {
	e := tvf.NewEncoder()
	for _, instr := range instrs {
		switch instr.Kind {
		case "uleb":
			e.AddUleb(instr.Uleb)
		case "sleb":
			e.AddSleb(instr.Sleb)
		case "vector":
			if err := e.AddVector(instr.Vector); err != nil {
				return nil, err
			}
		case "INLINE":
			e.AddRaw(instr.Inline)
		default:
			return nil, ltmerr.Newf(ltmerr.CodeUnsupportedInstr, "unsupported instruction kind %q", instr.Kind)
		}
	}
	return e.Build(), nil
}

// DecodedInstruction is one lowered instruction read back off the
// wire, optionally labeled against the originating manifest.
type DecodedInstruction struct {
	Kind    string // "uleb", "sleb", "vector", or "INLINE" (manifest-aware only)
	Uleb    *big.Int
	Sleb    *big.Int
	Vector  []byte
	Comment string
	// Pubset is populated only for a manifest-labeled INLINE
	// instruction: the embedded pubset, decoded with empty-stub
	// secret keys (spec.md §4.6).
	Pubset *keyset.KeySet
}

type rawItem struct {
	kind tvf.Kind
	uleb *big.Int
	sleb *big.Int
	vec  []byte
}

// decodeRawItems walks buf as a flat sequence of TVF primitives with
// no instruction-boundary knowledge.
func decodeRawItems(buf []byte) ([]rawItem, error) {
	d := tvf.NewDecoder(buf)
	var out []rawItem
	for d.HasNext() {
		kind, err := d.PeekType()
		if err != nil {
			return nil, err
		}
		switch kind {
		case tvf.KindUleb:
			v, err := d.ReadUleb()
			if err != nil {
				return nil, err
			}
			out = append(out, rawItem{kind: kind, uleb: v})
		case tvf.KindSleb:
			v, err := d.ReadSleb()
			if err != nil {
				return nil, err
			}
			out = append(out, rawItem{kind: kind, sleb: v})
		case tvf.KindVector:
			v, err := d.ReadVector()
			if err != nil {
				return nil, err
			}
			out = append(out, rawItem{kind: kind, vec: v})
		}
	}
	return out, nil
}

// decodeInstructions renders buf into plain, unlabeled instructions —
// the form used when no original manifest is supplied (spec.md §4.6).
func decodeInstructions(buf []byte) ([]DecodedInstruction, error) {
	items, err := decodeRawItems(buf)
	if err != nil {
		return nil, err
	}
	out := make([]DecodedInstruction, 0, len(items))
	for _, it := range items {
		switch it.kind {
		case tvf.KindUleb:
			out = append(out, DecodedInstruction{Kind: "uleb", Uleb: it.uleb})
		case tvf.KindSleb:
			out = append(out, DecodedInstruction{Kind: "sleb", Sleb: it.sleb})
		case tvf.KindVector:
			out = append(out, DecodedInstruction{Kind: "vector", Vector: it.vec})
		}
	}
	return out, nil
}

// decodeInstructionsWithManifest labels buf's decoded items against
// the original resolved invocation's instruction list, grouping the
// four raw items of an embedded pubset back into a single INLINE
// instruction carrying a structured, secret-stubbed keyset.
func decodeInstructionsWithManifest(buf []byte, want []manifest.ResolvedInstruction) ([]DecodedInstruction, error) {
	items, err := decodeRawItems(buf)
	if err != nil {
		return nil, err
	}
	out := make([]DecodedInstruction, 0, len(want))
	pos := 0
	next := func() (rawItem, error) {
		if pos >= len(items) {
			return rawItem{}, ltmerr.New(ltmerr.CodeTruncated, "instruction stream ended before manifest-declared items were consumed")
		}
		it := items[pos]
		pos++
		return it, nil
	}

	for _, spec := range want {
		switch spec.Kind {
		case "uleb":
			it, err := next()
			if err != nil {
				return nil, err
			}
			if it.kind != tvf.KindUleb {
				return nil, ltmerr.New(ltmerr.CodeHeaderMismatch, "expected uleb instruction")
			}
			out = append(out, DecodedInstruction{Kind: "uleb", Uleb: it.uleb, Comment: spec.Comment})
		case "sleb":
			it, err := next()
			if err != nil {
				return nil, err
			}
			if it.kind != tvf.KindSleb {
				return nil, ltmerr.New(ltmerr.CodeHeaderMismatch, "expected sleb instruction")
			}
			out = append(out, DecodedInstruction{Kind: "sleb", Sleb: it.sleb, Comment: spec.Comment})
		case "vector":
			it, err := next()
			if err != nil {
				return nil, err
			}
			if it.kind != tvf.KindVector {
				return nil, ltmerr.New(ltmerr.CodeHeaderMismatch, "expected vector instruction")
			}
			out = append(out, DecodedInstruction{Kind: "vector", Vector: it.vec, Comment: spec.Comment})
		case "INLINE":
			markerItem, err := next()
			if err != nil {
				return nil, err
			}
			pkItem, err := next()
			if err != nil {
				return nil, err
			}
			marker2Item, err := next()
			if err != nil {
				return nil, err
			}
			pk2Item, err := next()
			if err != nil {
				return nil, err
			}
			if markerItem.kind != tvf.KindUleb || pkItem.kind != tvf.KindVector ||
				marker2Item.kind != tvf.KindUleb || pk2Item.kind != tvf.KindVector {
				return nil, ltmerr.New(ltmerr.CodeHeaderMismatch, "INLINE instruction is not a well-formed pubset")
			}
			if markerItem.uleb.Uint64() != keyset.MarkerEd25519 || marker2Item.uleb.Uint64() != keyset.MarkerFalcon512 {
				return nil, ltmerr.New(ltmerr.CodeInvalidKeyset, "INLINE pubset markers out of order")
			}
			ks := &keyset.KeySet{
				Ed25519:   keyset.KeyPair{PK: pkItem.vec, SK: make([]byte, 0)},
				Falcon512: keyset.KeyPair{PK: pk2Item.vec, SK: make([]byte, 0)},
				Address:   keyset.DeriveAddress(pkItem.vec, pk2Item.vec),
			}
			out = append(out, DecodedInstruction{Kind: "INLINE", Pubset: ks, Comment: spec.Comment})
		default:
			return nil, ltmerr.Newf(ltmerr.CodeUnsupportedInstr, "unsupported instruction kind %q", spec.Kind)
		}
	}
	if pos != len(items) {
		return nil, ltmerr.New(ltmerr.CodeTruncated, "instruction stream had trailing items the manifest did not declare")
	}
	return out, nil
}
