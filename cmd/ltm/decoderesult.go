package main

import (
	"fmt"
	"os"

	"github.com/LEA-Blockchain/ltm/addr"
	"github.com/LEA-Blockchain/ltm/keyset"
	"github.com/LEA-Blockchain/ltm/manifest"
	"github.com/LEA-Blockchain/ltm/resultdecoder"
	cli "gopkg.in/urfave/cli.v1"
)

var decodeResultCommand = cli.Command{
	Name:      "decode-result",
	Usage:     "project an execution-result buffer through a manifest's resultSchema",
	ArgsUsage: "<result> <manifest>",
	Action:    decodeResultAction,
}

func decodeResultAction(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("decode-result: requires <result> and <manifest> arguments")
	}
	resultPath, manifestPath := c.Args().Get(0), c.Args().Get(1)

	raw, err := os.ReadFile(resultPath)
	if err != nil {
		return fmt.Errorf("decode-result: read %s: %w", resultPath, err)
	}

	tree, err := loadManifestFile(manifestPath)
	if err != nil {
		return err
	}
	rawSchema, _ := tree["resultSchema"].(map[string]any)
	if rawSchema == nil {
		return fmt.Errorf("decode-result: manifest %s has no resultSchema", manifestPath)
	}

	aliasMap, hrp, err := schemaAliasMap(tree)
	if err != nil {
		return err
	}

	schema, err := resultdecoder.ParseSchema(rawSchema, aliasMap, hrp)
	if err != nil {
		return err
	}

	decoded, err := resultdecoder.Decode(raw, schema)
	if err != nil {
		return err
	}

	out, err := renderResult(decoded)
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// schemaAliasMap recovers the alias map a resultSchema's program-address
// references resolve through. It first tries the manifest's full,
// unsigned resolution; if that fails (e.g. the manifest's invocations
// use $pubset(...) and no signer keys are available here per spec.md
// §6), it falls back to resolving just the constants subtree, which is
// all resultSchema keys can legally depend on without signer keys.
func schemaAliasMap(tree map[string]any) (map[string]string, string, error) {
	stripped, _ := manifest.StripKeysetDirectives(tree)
	cleanTree := stripped.(map[string]any)
	noSigners := map[string]*keyset.KeySet{}

	if resolved, err := manifest.Resolve(cleanTree, noSigners, manifest.Options{}); err == nil {
		return resolved.AliasMap, resolved.HRP, nil
	}

	synthetic := map[string]any{
		"constants": cleanTree["constants"],
		"sequence":  "0",
		"gasLimit":  "0",
		"gasPrice":  "0",
	}
	resolved, err := manifest.Resolve(synthetic, noSigners, manifest.Options{})
	if err != nil {
		return nil, addr.DefaultHRP, fmt.Errorf("decode-result: resolving resultSchema aliases: %w", err)
	}
	return resolved.AliasMap, resolved.HRP, nil
}
