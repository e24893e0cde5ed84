package resultdecoder

import (
	"math/big"
	"testing"

	"github.com/LEA-Blockchain/ltm/addr"
	"github.com/LEA-Blockchain/ltm/tvf"
)

func TestDecodeProjectsKnownAndUnknownFields(t *testing.T) {
	var programID addr.Address
	programID[0] = 0xAB

	e := tvf.NewEncoder()
	if err := e.AddVector(programID[:]); err != nil {
		t.Fatalf("AddVector: %v", err)
	}
	e.AddUlebUint64(2) // entry count
	e.AddUlebUint64(0)
	e.AddUleb(big.NewInt(42))
	e.AddUlebUint64(99) // unknown key
	if err := e.AddVector([]byte("hello")); err != nil {
		t.Fatalf("AddVector: %v", err)
	}
	buf := e.Build()

	schema := ProgramSchema{
		programID.ToHex(): Schema{
			"balance": FieldSpec{Key: 0, Type: "uleb"},
		},
	}

	result, err := Decode(buf, schema)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	pr, ok := result[programID.ToHex()]
	if !ok {
		t.Fatalf("missing program result for %s", programID.ToHex())
	}
	bal, ok := pr.Fields["balance"]
	if !ok || bal.Uleb.Int64() != 42 {
		t.Fatalf("expected balance=42, got %+v", pr.Fields)
	}
	unknown, ok := pr.Fields["key_99"]
	if !ok || string(unknown.Vector) != "hello" {
		t.Fatalf("expected unknown key_99=hello, got %+v", pr.Fields)
	}
	if len(pr.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", pr.Warnings)
	}
}

func TestDecodeWarnsOnTypeMismatch(t *testing.T) {
	var programID addr.Address
	programID[0] = 0xCD

	e := tvf.NewEncoder()
	if err := e.AddVector(programID[:]); err != nil {
		t.Fatalf("AddVector: %v", err)
	}
	e.AddUlebUint64(1)
	e.AddUlebUint64(0)
	if err := e.AddVector([]byte{1, 2, 3}); err != nil {
		t.Fatalf("AddVector: %v", err)
	}
	buf := e.Build()

	schema := ProgramSchema{
		programID.ToHex(): Schema{"count": FieldSpec{Key: 0, Type: "uleb"}},
	}
	result, err := Decode(buf, schema)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	pr := result[programID.ToHex()]
	if len(pr.Warnings) != 1 {
		t.Fatalf("expected one type-mismatch warning, got %v", pr.Warnings)
	}
}

func TestParseSchemaResolvesAlias(t *testing.T) {
	var programID addr.Address
	programID[0] = 0xEF
	bech, err := programID.ToBech32(addr.DefaultHRP)
	if err != nil {
		t.Fatalf("ToBech32: %v", err)
	}
	aliasMap := map[string]string{"vault": bech}

	raw := map[string]any{
		"vault": map[string]any{"total": "uleb(1)"},
	}
	schema, err := ParseSchema(raw, aliasMap, addr.DefaultHRP)
	if err != nil {
		t.Fatalf("ParseSchema: %v", err)
	}
	fs, ok := schema[programID.ToHex()]["total"]
	if !ok || fs.Key != 1 || fs.Type != "uleb" {
		t.Fatalf("unexpected schema entry: %+v", fs)
	}
}
