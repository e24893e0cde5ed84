package txcodec

import (
	"encoding/hex"
	"math/big"

	"github.com/LEA-Blockchain/ltm/ltmerr"
	"github.com/LEA-Blockchain/ltm/manifest"
	"github.com/LEA-Blockchain/ltm/tvf"
)

// MaxTransactionSize is the total decoded-size budget for one
// transaction, pod included (spec.md §6).
const MaxTransactionSize = 1 << 20

// EncodeOptions configures a single Encode call.
type EncodeOptions struct {
	// PrevTxHash, when non-empty, MUST be exactly 32 bytes. An
	// all-zero hash degrades gracefully to unchained signing.
	PrevTxHash []byte
}

// Result is the output of a successful Encode.
type Result struct {
	Bytes  []byte
	TxID   string // hex(baseHash)
	LinkID string // hex(linkHash); empty unless the transaction is chained
}

// buildPreSignaturePayload renders the TVF fields that precede the
// signature section (spec.md §4.5 step 1), returning the live encoder
// so signatures can be appended to the same chunk list afterward.
func buildPreSignaturePayload(r *manifest.Resolved) (*tvf.Encoder, []byte, error) {
	e := tvf.NewEncoder()
	e.AddUleb(big.NewInt(1)) // version
	e.AddUleb(r.Sequence)

	addrConcat := make([]byte, 0, len(r.Addresses)*32)
	for _, a := range r.Addresses {
		addrConcat = append(addrConcat, a[:]...)
	}
	if err := e.AddVector(addrConcat); err != nil {
		return nil, nil, err
	}

	e.AddUleb(r.GasLimit)
	e.AddUleb(r.GasPrice)

	for i, inv := range r.Invocations {
		if inv.TargetAddress < 0 || inv.TargetAddress >= len(r.Addresses) {
			return nil, nil, ltmerr.Newf(ltmerr.CodeIndexOutOfRange, "invocation %d: targetAddress %d out of range", i, inv.TargetAddress)
		}
		e.AddUleb(big.NewInt(int64(inv.TargetAddress)))
		instrBytes, err := encodeInstructions(inv.Instructions)
		if err != nil {
			return nil, nil, err
		}
		if err := e.AddVector(instrBytes); err != nil {
			return nil, nil, err
		}
	}

	preSig := e.Build()
	return e, preSig, nil
}

// Encode renders a resolved manifest into its final signed
// transaction bytes (spec.md §4.5).
func Encode(r *manifest.Resolved, opts EncodeOptions) (*Result, error) {
	if len(r.SignerKeys) == 0 {
		return nil, ltmerr.New(ltmerr.CodeNoSignatures, "a wire transaction requires at least one signature pair")
	}

	e, preSig, err := buildPreSignaturePayload(r)
	if err != nil {
		return nil, err
	}

	baseHash := BaseHash(r.Pod, preSig)
	message, linkHash, chained, err := resolveMessageToSign(baseHash, opts.PrevTxHash)
	if err != nil {
		return nil, err
	}

	for _, ks := range r.SignerKeys {
		sig, err := ks.SignMessage(message[:])
		if err != nil {
			return nil, err
		}
		if err := e.AddVector(sig.Ed25519); err != nil {
			return nil, err
		}
		if err := e.AddVector(sig.Falcon512); err != nil {
			return nil, err
		}
	}

	body := e.Build()
	final := make([]byte, 0, 32+len(body))
	final = append(final, r.Pod[:]...)
	final = append(final, body...)

	if len(final) > MaxTransactionSize {
		return nil, ltmerr.Newf(ltmerr.CodeSizeBudgetExceeded, "encoded transaction is %d bytes, exceeds %d", len(final), MaxTransactionSize)
	}

	result := &Result{
		Bytes: final,
		TxID:  hex.EncodeToString(baseHash[:]),
	}
	if chained {
		result.LinkID = hex.EncodeToString(linkHash[:])
	}
	return result, nil
}
