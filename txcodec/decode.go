package txcodec

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/LEA-Blockchain/ltm/addr"
	"github.com/LEA-Blockchain/ltm/keyset"
	"github.com/LEA-Blockchain/ltm/ltmerr"
	"github.com/LEA-Blockchain/ltm/manifest"
	"github.com/LEA-Blockchain/ltm/tvf"
)

// DecodedInvocation is one decoded invocation block.
type DecodedInvocation struct {
	TargetAddress int
	Instructions  []DecodedInstruction
}

// Decoded is a transaction reconstructed from wire bytes, along with
// the raw byte ranges needed to re-derive its hashes (spec.md §4.6).
type Decoded struct {
	Pod         addr.Address
	Version     uint64
	Sequence    *big.Int
	Addresses   []addr.Address
	GasLimit    *big.Int
	GasPrice    *big.Int
	Invocations []DecodedInvocation
	Signatures  []keyset.SignaturePair

	PreSignatureBytes    []byte
	SignatureSectionBytes []byte
}

// BaseHash recomputes BLAKE3(pod ‖ preSignatureBytes) (spec.md §4.6
// "hashes.base()").
func (d *Decoded) BaseHash() [32]byte {
	return BaseHash(d.Pod, d.PreSignatureBytes)
}

type rawInvocation struct {
	targetIndex int
	instrBytes  []byte
}

// Decode parses raw transaction bytes (already stripped of any VM
// wrapper) back into a Decoded structure. When original is non-nil,
// its invocation/instruction shape is used to label instructions
// (INLINE vs plain vector) exactly as they were authored.
func Decode(raw []byte, original *manifest.Resolved) (*Decoded, error) {
	if len(raw) < 32 {
		return nil, ltmerr.New(ltmerr.CodeTruncated, "transaction shorter than the 32-byte pod prefix")
	}
	if len(raw) > MaxTransactionSize {
		return nil, ltmerr.Newf(ltmerr.CodeSizeBudgetExceeded, "transaction is %d bytes, exceeds %d", len(raw), MaxTransactionSize)
	}

	var out Decoded
	copy(out.Pod[:], raw[:32])
	rest := raw[32:]
	d := tvf.NewDecoder(rest)

	version, err := d.ReadUlebUint64()
	if err != nil {
		return nil, err
	}
	if version != 1 {
		return nil, ltmerr.Newf(ltmerr.CodeHeaderMismatch, "unsupported transaction version %d", version)
	}
	out.Version = version

	seq, err := d.ReadUleb()
	if err != nil {
		return nil, err
	}
	out.Sequence = seq

	addrVec, err := d.ReadVector()
	if err != nil {
		return nil, err
	}
	if len(addrVec)%addr.Size != 0 {
		return nil, ltmerr.Newf(ltmerr.CodeBadAddress, "address vector length %d is not a multiple of %d", len(addrVec), addr.Size)
	}
	for i := 0; i < len(addrVec); i += addr.Size {
		var a addr.Address
		copy(a[:], addrVec[i:i+addr.Size])
		out.Addresses = append(out.Addresses, a)
	}

	gasLimit, err := d.ReadUleb()
	if err != nil {
		return nil, err
	}
	out.GasLimit = gasLimit

	gasPrice, err := d.ReadUleb()
	if err != nil {
		return nil, err
	}
	out.GasPrice = gasPrice

	var rawInvocations []rawInvocation
	for d.HasNext() {
		kind, err := d.PeekType()
		if err != nil {
			return nil, err
		}
		if kind != tvf.KindUleb {
			break
		}
		targetIdx, err := d.ReadUlebUint64()
		if err != nil {
			return nil, err
		}
		if int(targetIdx) >= len(out.Addresses) {
			return nil, ltmerr.Newf(ltmerr.CodeIndexOutOfRange, "targetAddress %d >= address count %d", targetIdx, len(out.Addresses))
		}
		instrBytes, err := d.ReadVector()
		if err != nil {
			return nil, err
		}
		rawInvocations = append(rawInvocations, rawInvocation{targetIndex: int(targetIdx), instrBytes: instrBytes})
	}

	preSigLen := d.Pos()
	out.PreSignatureBytes = append([]byte(nil), rest[:preSigLen]...)

	var sigVectors [][]byte
	for d.HasNext() {
		v, err := d.ReadVector()
		if err != nil {
			return nil, err
		}
		sigVectors = append(sigVectors, v)
	}
	if len(sigVectors)%2 != 0 {
		return nil, ltmerr.Newf(ltmerr.CodeUnpairedSignature, "odd number of signature vectors: %d", len(sigVectors))
	}
	for i := 0; i < len(sigVectors); i += 2 {
		out.Signatures = append(out.Signatures, keyset.SignaturePair{Ed25519: sigVectors[i], Falcon512: sigVectors[i+1]})
	}
	out.SignatureSectionBytes = append([]byte(nil), rest[preSigLen:]...)

	if original != nil && len(original.Invocations) != len(rawInvocations) {
		return nil, ltmerr.Newf(ltmerr.CodeUnsupportedInstr, "manifest declares %d invocations, wire has %d", len(original.Invocations), len(rawInvocations))
	}

	for i, ri := range rawInvocations {
		inv := DecodedInvocation{TargetAddress: ri.targetIndex}
		if original != nil {
			instrs, err := decodeInstructionsWithManifest(ri.instrBytes, original.Invocations[i].Instructions)
			if err != nil {
				return nil, errors.Wrapf(err, "invocations[%d]", i)
			}
			inv.Instructions = instrs
		} else {
			instrs, err := decodeInstructions(ri.instrBytes)
			if err != nil {
				return nil, errors.Wrapf(err, "invocations[%d]", i)
			}
			inv.Instructions = instrs
		}
		out.Invocations = append(out.Invocations, inv)
	}

	if len(out.Signatures) == 0 {
		return nil, ltmerr.New(ltmerr.CodeNoSignatures, "a wire transaction requires at least one signature pair")
	}

	return &out, nil
}
