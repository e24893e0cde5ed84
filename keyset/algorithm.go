package keyset

import (
	"crypto/rand"

	"github.com/algorand/falcon"
	circled25519 "github.com/cloudflare/circl/sign/ed25519"

	"github.com/LEA-Blockchain/ltm/ltmerr"
)

// Algorithm marker bytes reserved by the pubset wire format (spec.md §3).
const (
	MarkerEd25519   = 0
	MarkerFalcon512 = 1
)

// algorithm is the narrow sign/verify trait behind which both
// cryptographic primitives are kept, per spec.md §4.3's pluggable
// interface. Reference implementations are wired in directly here;
// a SIMD or hardware-accelerated backend can be swapped in by
// replacing these two values.
type algorithm interface {
	sign(sk, msg []byte) ([]byte, error)
	verify(pk, sig, msg []byte) (bool, error)
	pkLen() int
	skLen() int
	sigMaxLen() int
	generate() (pk, sk []byte, err error)
}

var ed25519Algo algorithm = ed25519Algorithm{}
var falcon512Algo algorithm = falcon512Algorithm{}

type ed25519Algorithm struct{}

func (ed25519Algorithm) pkLen() int    { return circled25519.PublicKeySize }
func (ed25519Algorithm) skLen() int    { return circled25519.PrivateKeySize }
func (ed25519Algorithm) sigMaxLen() int { return circled25519.SignatureSize }

func (ed25519Algorithm) sign(sk, msg []byte) ([]byte, error) {
	if len(sk) != circled25519.PrivateKeySize {
		return nil, ltmerr.New(ltmerr.CodeInvalidKeyset, "ed25519: secret key has wrong length")
	}
	return circled25519.Sign(circled25519.PrivateKey(sk), msg), nil
}

func (ed25519Algorithm) verify(pk, sig, msg []byte) (bool, error) {
	if len(pk) != circled25519.PublicKeySize {
		return false, ltmerr.New(ltmerr.CodeInvalidKeyset, "ed25519: public key has wrong length")
	}
	return circled25519.Verify(circled25519.PublicKey(pk), msg, sig), nil
}

func (ed25519Algorithm) generate() (pk, sk []byte, err error) {
	pub, priv, err := circled25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, ltmerr.Newf(ltmerr.CodeCryptoFailure, "ed25519 keygen: %v", err)
	}
	return []byte(pub), []byte(priv), nil
}

type falcon512Algorithm struct{}

func (falcon512Algorithm) pkLen() int     { return len(falcon.PublicKey{}) }
func (falcon512Algorithm) skLen() int     { return len(falcon.PrivateKey{}) }
func (falcon512Algorithm) sigMaxLen() int { return len(falcon.CTSignature{}) }

func (falcon512Algorithm) sign(sk, msg []byte) ([]byte, error) {
	if len(sk) != len(falcon.PrivateKey{}) {
		return nil, ltmerr.New(ltmerr.CodeInvalidKeyset, "falcon512: secret key has wrong length")
	}
	var fsk falcon.PrivateKey
	copy(fsk[:], sk)
	csig, err := fsk.SignCompressed(msg)
	if err != nil {
		return nil, ltmerr.Newf(ltmerr.CodeCryptoFailure, "falcon512 sign: %v", err)
	}
	// verify() checks against the fixed-length constant-time form, so
	// convert here rather than return the compressed encoding.
	ctsig, err := csig.ConvertToCT()
	if err != nil {
		return nil, ltmerr.Newf(ltmerr.CodeCryptoFailure, "falcon512 sign: convert to constant-time form: %v", err)
	}
	return ctsig[:], nil
}

func (falcon512Algorithm) verify(pk, sig, msg []byte) (bool, error) {
	if len(pk) != len(falcon.PublicKey{}) {
		return false, ltmerr.New(ltmerr.CodeInvalidKeyset, "falcon512: public key has wrong length")
	}
	if len(sig) != len(falcon.CTSignature{}) {
		return false, ltmerr.New(ltmerr.CodeInvalidKeyset, "falcon512: signature has wrong length")
	}
	var fpk falcon.PublicKey
	copy(fpk[:], pk)
	var fsig falcon.CTSignature
	copy(fsig[:], sig)
	if err := fpk.VerifyCTSignature(fsig, msg); err != nil {
		return false, nil
	}
	return true, nil
}

func (falcon512Algorithm) generate() (pk, sk []byte, err error) {
	fpk, fsk, err := falcon.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, ltmerr.Newf(ltmerr.CodeCryptoFailure, "falcon512 keygen: %v", err)
	}
	return fpk[:], fsk[:], nil
}
