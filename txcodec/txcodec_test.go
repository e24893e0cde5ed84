package txcodec

import (
	"bytes"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/LEA-Blockchain/ltm/addr"
	"github.com/LEA-Blockchain/ltm/keyset"
	"github.com/LEA-Blockchain/ltm/ltmerr"
	"github.com/LEA-Blockchain/ltm/manifest"
)

func decodeManifest(t *testing.T, src string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader([]byte(src)))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	return m
}

func mustKeySet(t *testing.T) *keyset.KeySet {
	t.Helper()
	ks, err := keyset.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return ks
}

func TestEncodeDecodeRoundTripMinimalSigned(t *testing.T) {
	payer := mustKeySet(t)
	target := mustKeySet(t)
	targetBech, _ := target.Address.ToBech32(addr.DefaultHRP)

	src := `{
		"sequence": 1, "gasLimit": 100000, "gasPrice": 10,
		"feePayer": "sender",
		"invocations": [
			{"targetAddress": "$addr(` + targetBech + `)", "instructions": [{"uleb": 1}, {"uleb": 500}]}
		]
	}`
	m := decodeManifest(t, src)
	resolved, err := manifest.Resolve(m, map[string]*keyset.KeySet{"sender": payer}, manifest.Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	result, err := Encode(resolved, EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(result.Bytes[:32], resolved.Pod[:]) {
		t.Fatal("transaction does not begin with pod")
	}

	decoded, err := Decode(result.Bytes, resolved)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Version != 1 {
		t.Fatalf("expected version 1, got %d", decoded.Version)
	}
	if decoded.Sequence.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("sequence mismatch: %v", decoded.Sequence)
	}
	if len(decoded.Addresses) != len(resolved.Addresses) {
		t.Fatalf("address table length mismatch")
	}
	for i, a := range resolved.Addresses {
		if decoded.Addresses[i] != a {
			t.Fatalf("address table entry %d mismatch", i)
		}
	}
	if len(decoded.Signatures) != 1 {
		t.Fatalf("expected exactly one signature pair, got %d", len(decoded.Signatures))
	}

	reEncoded, err := Encode(resolved, EncodeOptions{})
	if err != nil {
		t.Fatalf("re-Encode: %v", err)
	}
	if !bytes.Equal(reEncoded.Bytes, result.Bytes) {
		t.Fatal("re-encoding the same resolved manifest must be byte-identical (determinism)")
	}
}

func TestMultiSignerOrdering(t *testing.T) {
	payer := mustKeySet(t)
	other := mustKeySet(t)
	target := mustKeySet(t)
	targetBech, _ := target.Address.ToBech32(addr.DefaultHRP)

	src := `{
		"sequence": 0, "gasLimit": 1, "gasPrice": 1,
		"feePayer": "payer",
		"invocations": [{"targetAddress": "$addr(` + targetBech + `)", "instructions": [{"uleb": 1}]}]
	}`
	m := decodeManifest(t, src)
	signers := map[string]*keyset.KeySet{"payer": payer, "other": other}
	resolved, err := manifest.Resolve(m, signers, manifest.Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	result, err := Encode(resolved, EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(result.Bytes, resolved)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded.Signatures) != 2 {
		t.Fatalf("expected two signature pairs, got %d", len(decoded.Signatures))
	}
	if decoded.Addresses[0] != payer.Address {
		t.Fatal("fee payer must occupy address table index 0")
	}
}

func TestInlinePubsetRoundTrip(t *testing.T) {
	payer := mustKeySet(t)
	identity := mustKeySet(t)

	src := `{
		"sequence": 0, "gasLimit": 0, "gasPrice": 0,
		"feePayer": "payer",
		"invocations": [{"targetAddress": "$addr(payer)", "instructions": [{"INLINE": "$pubset(identityOwner)"}]}]
	}`
	m := decodeManifest(t, src)
	signers := map[string]*keyset.KeySet{"payer": payer, "identityOwner": identity}
	resolved, err := manifest.Resolve(m, signers, manifest.Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	result, err := Encode(resolved, EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(result.Bytes, resolved)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	instr := decoded.Invocations[0].Instructions[0]
	if instr.Kind != "INLINE" || instr.Pubset == nil {
		t.Fatalf("expected a labeled INLINE pubset instruction, got %+v", instr)
	}
	if !bytes.Equal(instr.Pubset.Ed25519.PK, identity.Ed25519.PK) {
		t.Fatal("decoded pubset public key mismatch")
	}
	if len(instr.Pubset.Ed25519.SK) != 0 || len(instr.Pubset.Falcon512.SK) != 0 {
		t.Fatal("decoded pubset must carry empty-stub secret keys")
	}
}

func TestVMWrapperRoundTrip(t *testing.T) {
	payer := mustKeySet(t)
	targetBech, _ := payer.Address.ToBech32(addr.DefaultHRP)
	src := `{
		"sequence": 0, "gasLimit": 0, "gasPrice": 0, "feePayer": "payer",
		"invocations": [{"targetAddress": "$addr(` + targetBech + `)", "instructions": [{"uleb": 1}]}]
	}`
	m := decodeManifest(t, src)
	resolved, err := manifest.Resolve(m, map[string]*keyset.KeySet{"payer": payer}, manifest.Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	result, err := Encode(resolved, EncodeOptions{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	wrapped := WrapVM(result.Bytes)
	if _, err := Decode(wrapped, resolved); err == nil {
		t.Fatal("decoding a VM-wrapped transaction without stripping the header must fail")
	}

	stripped, err := StripVM(wrapped)
	if err != nil {
		t.Fatalf("StripVM: %v", err)
	}
	if !bytes.Equal(stripped, result.Bytes) {
		t.Fatal("StripVM must recover the exact original transaction bytes")
	}
	if _, err := Decode(stripped, resolved); err != nil {
		t.Fatalf("Decode after StripVM: %v", err)
	}
}

func TestChainLinkage(t *testing.T) {
	var prev, base [32]byte
	for i := range prev {
		prev[i] = byte(i)
	}
	for i := range base {
		base[i] = byte(255 - i)
	}
	link := computeTxLinkHash(prev, base)

	var zero [32]byte
	msg, _, chained, err := resolveMessageToSign(base, zero[:])
	if err != nil {
		t.Fatalf("resolveMessageToSign: %v", err)
	}
	if chained {
		t.Fatal("an all-zero prevTxHash must degrade to unchained signing")
	}
	if msg != base {
		t.Fatal("unchained message must equal the base hash")
	}

	msg2, link2, chained2, err := resolveMessageToSign(base, prev[:])
	if err != nil {
		t.Fatalf("resolveMessageToSign: %v", err)
	}
	if !chained2 || msg2 != link || link2 != link {
		t.Fatal("chained message must equal computeTxLinkHash(prev, base)")
	}
}

func TestEncodeRejectsUnsigned(t *testing.T) {
	src := `{"sequence": 0, "gasLimit": 0, "gasPrice": 0, "invocations": []}`
	m := decodeManifest(t, src)
	resolved, err := manifest.Resolve(m, nil, manifest.Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, err := Encode(resolved, EncodeOptions{}); !ltmerr.Is(err, ltmerr.CodeNoSignatures) {
		t.Fatalf("expected NoSignatures, got %v", err)
	}
}
