package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/LEA-Blockchain/ltm/keyset"
)

// decodeJSONMap parses data as a JSON object, configuring the decoder
// with UseNumber so integers wider than 2^53 survive as json.Number
// rather than losing precision as float64 (spec.md §9 "Big integer
// policy").
func decodeJSONMap(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parse JSON object: %w", err)
	}
	return m, nil
}

func loadManifestFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	return decodeJSONMap(data)
}

// loadKeyfile loads a single signer's keyfile (spec.md §6 "Keyfile
// format").
func loadKeyfile(path string) (*keyset.KeySet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keyfile %s: %w", path, err)
	}
	var f keyset.File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse keyfile %s: %w", path, err)
	}
	return keyset.Load(f)
}

// keysetBundle is the JSON shape loaded by a $keyset(path) directive:
// a single file mapping signer alias to its keyfile object, so a
// manifest can pull in many signers with one directive instead of one
// --alias flag per signer.
type keysetBundle map[string]keyset.File

// loadKeysetBundle loads every signer declared in a $keyset bundle
// file, keyed by alias.
func loadKeysetBundle(path string) (map[string]*keyset.KeySet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keyset bundle %s: %w", path, err)
	}
	var bundle keysetBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("parse keyset bundle %s: %w", path, err)
	}
	out := make(map[string]*keyset.KeySet, len(bundle))
	for alias, f := range bundle {
		ks, err := keyset.Load(f)
		if err != nil {
			return nil, fmt.Errorf("keyset bundle %s: signer %q: %w", path, alias, err)
		}
		out[alias] = ks
	}
	return out, nil
}

// defaultOutfile implements the "manifest path with .json replaced by
// .tx.bin" convention (spec.md §6).
func defaultOutfile(manifestPath string) string {
	if strings.HasSuffix(manifestPath, ".json") {
		return strings.TrimSuffix(manifestPath, ".json") + ".tx.bin"
	}
	return manifestPath + ".tx.bin"
}
