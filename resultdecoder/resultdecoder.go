// Package resultdecoder implements the execution-result decoder:
// parsing a TVF stream of per-program key/value entries and
// projecting them through a schema mapping numeric keys to named,
// typed fields (spec.md §4.7).
package resultdecoder

import (
	"fmt"
	"math/big"

	"github.com/pkg/errors"

	"github.com/LEA-Blockchain/ltm/addr"
	"github.com/LEA-Blockchain/ltm/ltmerr"
	"github.com/LEA-Blockchain/ltm/tvf"
)

// FieldSpec names one schema-declared field: its wire key and the TVF
// primitive kind it is expected to carry.
type FieldSpec struct {
	Key  uint64
	Type string // "uleb", "sleb", or "vector"
}

// Schema maps field name to its spec for a single program.
type Schema map[string]FieldSpec

// ProgramSchema maps a program address (lowercase hex, as from
// addr.Address.ToHex) to its field schema.
type ProgramSchema map[string]Schema

// Value is one decoded key/value entry.
type Value struct {
	Kind   string // "uleb", "sleb", "vector"
	Uleb   *big.Int
	Sleb   *big.Int
	Vector []byte
}

// ProgramResult holds one program's decoded, schema-projected fields.
type ProgramResult struct {
	ProgramID addr.Address
	Fields    map[string]Value
	// Warnings records non-fatal schema/wire type mismatches
	// (spec.md §7 "Schema type mismatches ... warn and proceed").
	Warnings []string
}

// Result maps program-address-hex to its decoded result.
type Result map[string]ProgramResult

// Decode parses buf as a repeating sequence of
// vector(programId) ‖ uvarint(entryCount) ‖ {uvarint(key) ‖ typed_value}^entryCount
// groups, projecting each program's entries through schema.
func Decode(buf []byte, schema ProgramSchema) (Result, error) {
	d := tvf.NewDecoder(buf)
	out := Result{}

	for groupIndex := 0; d.HasNext(); groupIndex++ {
		programIDBytes, err := d.ReadVector()
		if err != nil {
			return nil, errors.Wrapf(err, "result group %d", groupIndex)
		}
		if len(programIDBytes) != addr.Size {
			return nil, ltmerr.Newf(ltmerr.CodeBadAddress, "program id must be %d bytes, got %d", addr.Size, len(programIDBytes))
		}
		var programID addr.Address
		copy(programID[:], programIDBytes)

		entryCount, err := d.ReadUlebUint64()
		if err != nil {
			return nil, err
		}

		keyToField := map[uint64]string{}
		progSchema := schema[programID.ToHex()]
		fieldType := map[string]string{}
		for name, spec := range progSchema {
			keyToField[spec.Key] = name
			fieldType[name] = spec.Type
		}

		result := ProgramResult{ProgramID: programID, Fields: map[string]Value{}}
		for i := uint64(0); i < entryCount; i++ {
			key, err := d.ReadUlebUint64()
			if err != nil {
				return nil, errors.Wrapf(err, "program %s entry %d", programID.ToHex(), i)
			}
			val, err := readValue(d)
			if err != nil {
				return nil, errors.Wrapf(err, "program %s key %d", programID.ToHex(), key)
			}

			fieldName, known := keyToField[key]
			if !known {
				fieldName = fmt.Sprintf("key_%d", key)
			} else if fieldType[fieldName] != val.Kind {
				result.Warnings = append(result.Warnings, fmt.Sprintf(
					"field %q: schema declares %s but wire carries %s", fieldName, fieldType[fieldName], val.Kind))
			}
			result.Fields[fieldName] = val
		}
		out[programID.ToHex()] = result
	}
	return out, nil
}

func readValue(d *tvf.Decoder) (Value, error) {
	kind, err := d.PeekType()
	if err != nil {
		return Value{}, err
	}
	switch kind {
	case tvf.KindUleb:
		v, err := d.ReadUleb()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: "uleb", Uleb: v}, nil
	case tvf.KindSleb:
		v, err := d.ReadSleb()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: "sleb", Sleb: v}, nil
	case tvf.KindVector:
		v, err := d.ReadVector()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: "vector", Vector: v}, nil
	}
	return Value{}, ltmerr.New(ltmerr.CodeHeaderMismatch, "result entry has an unrecognized TVF kind")
}
