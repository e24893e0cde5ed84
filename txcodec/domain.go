// Package txcodec implements the Lea transaction encoder and decoder:
// the pre-signature payload, the BLAKE3 base hash, the domain-separated
// chain link hash, and the dual-signature section (spec.md §4.5, §4.6).
package txcodec

import (
	"github.com/zeebo/blake3"

	"github.com/LEA-Blockchain/ltm/ltmerr"
)

// domainTxLinkV1 is the fixed 32-byte domain tag for chain-linked
// signing: the 10 ASCII bytes of "TX-LINK-V1" followed by 22 zero
// bytes. Fixed forever (spec.md §6).
var domainTxLinkV1 = func() [32]byte {
	var d [32]byte
	copy(d[:], "TX-LINK-V1")
	return d
}()

// BaseHash computes BLAKE3(pod ‖ preSignatureBytes), the default
// signed message (spec.md §4.5 step 2).
func BaseHash(pod [32]byte, preSignatureBytes []byte) [32]byte {
	buf := make([]byte, 0, 32+len(preSignatureBytes))
	buf = append(buf, pod[:]...)
	buf = append(buf, preSignatureBytes...)
	return blake3.Sum256(buf)
}

// computeTxLinkHash derives the domain-separated chain link hash:
// BLAKE3(domainTxLinkV1 ‖ prevTxHash ‖ baseHash) (spec.md §4.5 step 3).
func computeTxLinkHash(prevTxHash, baseHash [32]byte) [32]byte {
	buf := make([]byte, 0, 96)
	buf = append(buf, domainTxLinkV1[:]...)
	buf = append(buf, prevTxHash[:]...)
	buf = append(buf, baseHash[:]...)
	return blake3.Sum256(buf)
}

func isAllZero(b [32]byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// resolveMessageToSign implements spec.md §4.5 step 3: picks the base
// hash or, when a non-zero previous transaction hash is supplied, the
// chain-linked hash. A signature must still apply to exactly 32 bytes.
func resolveMessageToSign(baseHash [32]byte, prevTxHash []byte) (message [32]byte, linkHash [32]byte, chained bool, err error) {
	if len(prevTxHash) == 0 {
		return baseHash, [32]byte{}, false, nil
	}
	if len(prevTxHash) != 32 {
		return [32]byte{}, [32]byte{}, false, ltmerr.Newf(ltmerr.CodeBadAddress, "prevTxHash must be 32 bytes, got %d", len(prevTxHash))
	}
	var prev [32]byte
	copy(prev[:], prevTxHash)
	if isAllZero(prev) {
		// Degrades gracefully to unchained signing (spec.md §7).
		return baseHash, [32]byte{}, false, nil
	}
	link := computeTxLinkHash(prev, baseHash)
	return link, link, true, nil
}
