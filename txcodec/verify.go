package txcodec

import (
	"fmt"

	"github.com/LEA-Blockchain/ltm/keyset"
)

// VerifyResult is the outcome of VerifySingleSigner.
type VerifyResult struct {
	OK        bool
	Ed25519   bool
	Falcon512 bool
}

// VerifySingleSigner recomputes the base hash of a decoded transaction
// that carries exactly one signature pair and checks it against pub's
// public keys (spec.md §4.6 "Signature verification helper").
func VerifySingleSigner(d *Decoded, pub *keyset.KeySet) (VerifyResult, error) {
	if len(d.Signatures) != 1 {
		return VerifyResult{}, fmt.Errorf("txcodec: VerifySingleSigner requires exactly one signature pair, got %d", len(d.Signatures))
	}
	base := d.BaseHash()
	edOK, falOK, err := pub.Verify(base[:], d.Signatures[0])
	if err != nil {
		return VerifyResult{}, err
	}
	return VerifyResult{OK: edOK && falOK, Ed25519: edOK, Falcon512: falOK}, nil
}
