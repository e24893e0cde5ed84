// Package keyset implements the Lea key handler: loading a signer's
// dual-algorithm keyset, deriving its address, signing and verifying
// with both algorithms, and emitting its serialized pubset
// (spec.md §3, §4.3).
package keyset

import (
	"math/big"

	"github.com/zeebo/blake3"

	"github.com/LEA-Blockchain/ltm/addr"
	"github.com/LEA-Blockchain/ltm/ltmerr"
	"github.com/LEA-Blockchain/ltm/tvf"
)

// KeyPair is one (secret, public) pair for a single algorithm.
type KeyPair struct {
	SK []byte
	PK []byte
}

// KeySet is a signer's dual-algorithm (Ed25519 + Falcon-512) keyset,
// along with its derived address.
type KeySet struct {
	Ed25519   KeyPair
	Falcon512 KeyPair
	Address   addr.Address
}

// SignaturePair holds one dual signature over a single message.
type SignaturePair struct {
	Ed25519   []byte
	Falcon512 []byte
}

// File is the on-disk keyfile shape (spec.md §6): a 2x2 array of byte
// arrays plus optional declared addresses for cross-checking.
type File struct {
	Keyset     [2][2]byteArray `json:"keyset"`
	Address    string          `json:"address,omitempty"`
	AddressHex string          `json:"addressHex,omitempty"`
}

// DeriveAddress computes BLAKE3(ed_pk ‖ fal_pk), the fixed address
// derivation invariant (spec.md §3).
func DeriveAddress(edPK, falPK []byte) addr.Address {
	buf := make([]byte, 0, len(edPK)+len(falPK))
	buf = append(buf, edPK...)
	buf = append(buf, falPK...)
	return addr.Address(blake3.Sum256(buf))
}

// Load validates and parses a keyfile object into a KeySet, cross
// checking any declared address against the derived one.
func Load(f File) (*KeySet, error) {
	edSK, edPK := []byte(f.Keyset[0][0]), []byte(f.Keyset[0][1])
	falSK, falPK := []byte(f.Keyset[1][0]), []byte(f.Keyset[1][1])

	if len(edPK) != ed25519Algo.pkLen() || (len(edSK) != 0 && len(edSK) != ed25519Algo.skLen()) {
		return nil, ltmerr.New(ltmerr.CodeInvalidKeyset, "ed25519 key lengths invalid")
	}
	if len(falPK) != falcon512Algo.pkLen() || (len(falSK) != 0 && len(falSK) != falcon512Algo.skLen()) {
		return nil, ltmerr.New(ltmerr.CodeInvalidKeyset, "falcon512 key lengths invalid")
	}

	derived := DeriveAddress(edPK, falPK)

	if f.AddressHex != "" {
		declared, err := addr.FromHex(f.AddressHex)
		if err != nil {
			return nil, err
		}
		if declared != derived {
			return nil, ltmerr.New(ltmerr.CodeKeyAddressMismatch, "addressHex does not match BLAKE3(ed_pk ‖ fal_pk)")
		}
	}
	if f.Address != "" {
		declared, err := addr.FromBech32(f.Address, addr.DefaultHRP)
		if err != nil {
			return nil, err
		}
		if declared != derived {
			return nil, ltmerr.New(ltmerr.CodeKeyAddressMismatch, "address does not match BLAKE3(ed_pk ‖ fal_pk)")
		}
	}

	return &KeySet{
		Ed25519:   KeyPair{SK: edSK, PK: edPK},
		Falcon512: KeyPair{SK: falSK, PK: falPK},
		Address:   derived,
	}, nil
}

// SignMessage signs msg (the already-computed hash to be signed; no
// further hashing is applied here) with both algorithms.
func (k *KeySet) SignMessage(msg []byte) (SignaturePair, error) {
	edSig, err := ed25519Algo.sign(k.Ed25519.SK, msg)
	if err != nil {
		return SignaturePair{}, err
	}
	falSig, err := falcon512Algo.sign(k.Falcon512.SK, msg)
	if err != nil {
		return SignaturePair{}, err
	}
	return SignaturePair{Ed25519: edSig, Falcon512: falSig}, nil
}

// Verify checks both signatures in sig against msg using k's public
// keys, reporting each algorithm's result independently.
func (k *KeySet) Verify(msg []byte, sig SignaturePair) (edOK, falOK bool, err error) {
	edOK, err = ed25519Algo.verify(k.Ed25519.PK, sig.Ed25519, msg)
	if err != nil {
		return false, false, err
	}
	falOK, err = falcon512Algo.verify(k.Falcon512.PK, sig.Falcon512, msg)
	if err != nil {
		return false, false, err
	}
	return edOK, falOK, nil
}

// Pubset returns the four-item TVF serialization of k's public keys:
// uvarint(0) ‖ vector(ed_pk) ‖ uvarint(1) ‖ vector(fal_pk).
func (k *KeySet) Pubset() ([]byte, error) {
	e := tvf.NewEncoder()
	e.AddUleb(big.NewInt(MarkerEd25519))
	if err := e.AddVector(k.Ed25519.PK); err != nil {
		return nil, err
	}
	e.AddUleb(big.NewInt(MarkerFalcon512))
	if err := e.AddVector(k.Falcon512.PK); err != nil {
		return nil, err
	}
	return e.Build(), nil
}

// FromPubset parses a four-item TVF pubset blob (as emitted by
// Pubset) into a public-only KeySet whose secret keys are empty-length
// placeholders, per the decoder's inline-pubset projection (spec.md
// §4.6) and the "never leak private material" rule of spec.md §6.
func FromPubset(blob []byte) (*KeySet, error) {
	d := tvf.NewDecoder(blob)

	marker0, err := d.ReadUlebUint64()
	if err != nil {
		return nil, err
	}
	if marker0 != MarkerEd25519 {
		return nil, ltmerr.New(ltmerr.CodeInvalidKeyset, "pubset: expected ed25519 marker 0 first")
	}
	edPK, err := d.ReadVector()
	if err != nil {
		return nil, err
	}

	marker1, err := d.ReadUlebUint64()
	if err != nil {
		return nil, err
	}
	if marker1 != MarkerFalcon512 {
		return nil, ltmerr.New(ltmerr.CodeInvalidKeyset, "pubset: expected falcon512 marker 1 second")
	}
	falPK, err := d.ReadVector()
	if err != nil {
		return nil, err
	}

	return &KeySet{
		Ed25519:   KeyPair{PK: edPK, SK: make([]byte, 0)},
		Falcon512: KeyPair{PK: falPK, SK: make([]byte, 0)},
		Address:   DeriveAddress(edPK, falPK),
	}, nil
}

// Generate produces a fresh random keyset (keys drawn from
// crypto/rand) using the reference crypto primitives, for tests and
// tooling that need throwaway signers.
func Generate() (*KeySet, error) {
	edPK, edSK, err := ed25519Algo.generate()
	if err != nil {
		return nil, err
	}
	falPK, falSK, err := falcon512Algo.generate()
	if err != nil {
		return nil, err
	}
	return &KeySet{
		Ed25519:   KeyPair{SK: edSK, PK: edPK},
		Falcon512: KeyPair{SK: falSK, PK: falPK},
		Address:   DeriveAddress(edPK, falPK),
	}, nil
}
