package manifest

import (
	"bytes"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/LEA-Blockchain/ltm/addr"
	"github.com/LEA-Blockchain/ltm/keyset"
	"github.com/LEA-Blockchain/ltm/ltmerr"
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

func TestResolveUnsignedMinimal(t *testing.T) {
	other := mustKeySet(t)
	otherBech, err := other.Address.ToBech32(addr.DefaultHRP)
	if err != nil {
		t.Fatalf("ToBech32: %v", err)
	}

	src := `{
		"sequence": 1,
		"gasLimit": 21000,
		"gasPrice": 1,
		"invocations": [
			{
				"targetAddress": "$addr(` + otherBech + `)",
				"instructions": [
					{"uleb": 42}
				]
			}
		]
	}`
	m := decodeManifest(t, src)

	resolved, err := Resolve(m, nil, Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Signed {
		t.Fatal("expected unsigned resolution with no signers")
	}
	if len(resolved.Addresses) != 1 || resolved.Addresses[0] != other.Address {
		t.Fatalf("unexpected address table: %+v", resolved.Addresses)
	}
	if len(resolved.Invocations) != 1 || resolved.Invocations[0].TargetAddress != 0 {
		t.Fatalf("unexpected invocations: %+v", resolved.Invocations)
	}
	instr := resolved.Invocations[0].Instructions[0]
	if instr.Kind != "uleb" || instr.Uleb.Int64() != 42 {
		t.Fatalf("unexpected instruction: %+v", instr)
	}
}

func TestResolveSignedFeePayerFirst(t *testing.T) {
	payer := mustKeySet(t)
	other := mustKeySet(t)
	signers := map[string]*keyset.KeySet{
		"payer": payer,
		"other": other,
	}

	src := `{
		"sequence": 7,
		"gasLimit": 1,
		"gasPrice": 1,
		"feePayer": "payer",
		"signers": ["payer", "other"],
		"invocations": [
			{
				"targetAddress": "$addr(other)",
				"instructions": [{"sleb": -5}]
			}
		]
	}`
	m := decodeManifest(t, src)

	resolved, err := Resolve(m, signers, Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !resolved.Signed || resolved.FeePayer != 0 {
		t.Fatalf("expected signed resolution with fee payer at index 0, got %+v", resolved)
	}
	if resolved.Addresses[0] != payer.Address {
		t.Fatal("fee payer must occupy address table index 0")
	}
	if resolved.Addresses[1] != other.Address {
		t.Fatal("expected the other signer at index 1")
	}
	if resolved.Invocations[0].TargetAddress != 1 {
		t.Fatalf("expected invocation to target index 1, got %d", resolved.Invocations[0].TargetAddress)
	}
}

func TestResolveConstantsAndPubset(t *testing.T) {
	signer := mustKeySet(t)
	signers := map[string]*keyset.KeySet{"alice": signer}

	src := `{
		"constants": {"gl": 100, "alias": "alice"},
		"sequence": 0,
		"gasLimit": "$const(gl)",
		"gasPrice": 0,
		"feePayer": "alice",
		"invocations": [
			{
				"targetAddress": "$addr(alias)",
				"instructions": [
					{"INLINE": "$pubset(alice)"}
				]
			}
		]
	}`
	m := decodeManifest(t, src)

	resolved, err := Resolve(m, signers, Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.GasLimit.Int64() != 100 {
		t.Fatalf("expected gasLimit resolved from $const, got %v", resolved.GasLimit)
	}
	if resolved.Invocations[0].TargetAddress != 0 {
		t.Fatalf("expected target index 0 (fee payer == alice), got %d", resolved.Invocations[0].TargetAddress)
	}
	instr := resolved.Invocations[0].Instructions[0]
	if instr.Kind != "INLINE" || len(instr.Inline) == 0 {
		t.Fatalf("expected non-empty INLINE pubset bytes, got %+v", instr)
	}
	blob, err := signer.Pubset()
	if err != nil {
		t.Fatalf("Pubset: %v", err)
	}
	if !bytes.Equal(instr.Inline, blob) {
		t.Fatal("INLINE bytes do not match signer's own pubset")
	}
}

func TestResolveUnknownConstantFails(t *testing.T) {
	src := `{
		"sequence": 0, "gasLimit": "$const(missing)", "gasPrice": 0, "invocations": []
	}`
	m := decodeManifest(t, src)
	if _, err := Resolve(m, nil, Options{}); !ltmerr.Is(err, ltmerr.CodeUnknownConstant) {
		t.Fatalf("expected UnknownConstant, got %v", err)
	}
}

func TestResolveMissingFeePayerFails(t *testing.T) {
	signers := map[string]*keyset.KeySet{"alice": mustKeySet(t)}
	src := `{"sequence": 0, "gasLimit": 0, "gasPrice": 0, "invocations": []}`
	m := decodeManifest(t, src)
	if _, err := Resolve(m, signers, Options{}); !ltmerr.Is(err, ltmerr.CodeMissingFeePayer) {
		t.Fatalf("expected MissingFeePayer, got %v", err)
	}
}

func TestResolveAddrInInstructionOperand(t *testing.T) {
	target := mustKeySet(t)
	recipient := mustKeySet(t)
	targetBech, _ := target.Address.ToBech32(addr.DefaultHRP)
	recipientBech, _ := recipient.Address.ToBech32(addr.DefaultHRP)
	src := `{
		"sequence": 0, "gasLimit": 0, "gasPrice": 0,
		"constants": {"recipient": "` + recipientBech + `"},
		"invocations": [
			{
				"targetAddress": "$addr(` + targetBech + `)",
				"instructions": [
					{"uleb": "$addr(recipient)"},
					{"vector": "$addr(recipient)"}
				]
			}
		]
	}`
	m := decodeManifest(t, src)

	resolved, err := Resolve(m, nil, Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	var recipientIdx = -1
	for i, a := range resolved.Addresses {
		if a == recipient.Address {
			recipientIdx = i
		}
	}
	if recipientIdx < 0 {
		t.Fatalf("recipient address missing from table: %+v", resolved.Addresses)
	}

	instrs := resolved.Invocations[0].Instructions
	if instrs[0].Kind != "uleb" || instrs[0].Uleb == nil || instrs[0].Uleb.Int64() != int64(recipientIdx) {
		t.Fatalf("expected uleb operand to resolve to table index %d, got %+v", recipientIdx, instrs[0])
	}
	wantVec := big.NewInt(int64(recipientIdx)).Bytes()
	if instrs[1].Kind != "vector" || !bytes.Equal(instrs[1].Vector, wantVec) {
		t.Fatalf("expected vector operand to resolve to index bytes %x, got %+v", wantVec, instrs[1])
	}
}

func TestResolveAmbiguousInstructionFails(t *testing.T) {
	other := mustKeySet(t)
	otherBech, _ := other.Address.ToBech32(addr.DefaultHRP)
	src := `{
		"sequence": 0, "gasLimit": 0, "gasPrice": 0,
		"invocations": [
			{"targetAddress": "$addr(` + otherBech + `)", "instructions": [{"uleb": 1, "sleb": 1}]}
		]
	}`
	m := decodeManifest(t, src)
	if _, err := Resolve(m, nil, Options{}); !ltmerr.Is(err, ltmerr.CodeAmbiguousInstr) {
		t.Fatalf("expected AmbiguousInstruction, got %v", err)
	}
}

func TestStripKeysetDirectives(t *testing.T) {
	src := `{"signers": ["$keyset(./keys/bundle.json)", "alice"], "sequence": 0}`
	m := decodeManifest(t, src)
	cleaned, paths := StripKeysetDirectives(m)
	if len(paths) != 1 || paths[0] != "./keys/bundle.json" {
		t.Fatalf("unexpected paths: %+v", paths)
	}
	cm := cleaned.(map[string]any)
	signers := cm["signers"].([]any)
	if len(signers) != 1 || signers[0] != "alice" {
		t.Fatalf("expected the directive entry removed, got %+v", signers)
	}
}
