package keyset

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/LEA-Blockchain/ltm/ltmerr"
)

func TestDeriveAddressInvariant(t *testing.T) {
	ks, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if ks.Address != DeriveAddress(ks.Ed25519.PK, ks.Falcon512.PK) {
		t.Fatal("address does not match BLAKE3(ed_pk || fal_pk)")
	}
}

func TestLoadCrossChecksDeclaredAddress(t *testing.T) {
	ks, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	f := File{
		Keyset: [2][2]byteArray{
			{byteArray(ks.Ed25519.SK), byteArray(ks.Ed25519.PK)},
			{byteArray(ks.Falcon512.SK), byteArray(ks.Falcon512.PK)},
		},
		AddressHex: ks.Address.ToHex(),
	}
	loaded, err := Load(f)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Address != ks.Address {
		t.Fatal("loaded address mismatch")
	}

	bad := f
	var wrong [32]byte
	wrong[0] = ks.Address[0] ^ 0xff
	bad.AddressHex = hex.EncodeToString(wrong[:])
	if _, err := Load(bad); !ltmerr.Is(err, ltmerr.CodeKeyAddressMismatch) {
		t.Fatalf("expected KeyAddressMismatch, got %v", err)
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	ks, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	msg := []byte("pod || pre_signature_payload hash")
	sig, err := ks.SignMessage(msg)
	if err != nil {
		t.Fatalf("SignMessage: %v", err)
	}
	edOK, falOK, err := ks.Verify(msg, sig)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !edOK || !falOK {
		t.Fatalf("expected both signatures valid, got ed=%v fal=%v", edOK, falOK)
	}

	tampered := sig
	tampered.Ed25519 = append([]byte(nil), sig.Ed25519...)
	tampered.Ed25519[0] ^= 0xff
	edOK, _, err = ks.Verify(msg, tampered)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if edOK {
		t.Fatal("tampered ed25519 signature should not verify")
	}
}

func TestPubsetRoundTrip(t *testing.T) {
	ks, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	blob, err := ks.Pubset()
	if err != nil {
		t.Fatalf("Pubset: %v", err)
	}
	restored, err := FromPubset(blob)
	if err != nil {
		t.Fatalf("FromPubset: %v", err)
	}
	if !bytes.Equal(restored.Ed25519.PK, ks.Ed25519.PK) || !bytes.Equal(restored.Falcon512.PK, ks.Falcon512.PK) {
		t.Fatal("public key mismatch after pubset round trip")
	}
	if len(restored.Ed25519.SK) != 0 || len(restored.Falcon512.SK) != 0 {
		t.Fatal("restored keyset must have empty secret-key placeholders")
	}
	if restored.Address != ks.Address {
		t.Fatal("address mismatch after pubset round trip")
	}
}
