package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/LEA-Blockchain/ltm/keyset"
	"github.com/LEA-Blockchain/ltm/manifest"
	"github.com/LEA-Blockchain/ltm/txcodec"
	cli "gopkg.in/urfave/cli.v1"
)

// packageCommand implements `package <manifest> --<signerAlias> <keyfile>...
// [--file <var> <path>]... [--outfile <path>] [--no-chain]` (spec.md §6).
// Signer flags are not known ahead of time, so flag parsing is
// disabled and the arguments are walked by hand below.
var packageCommand = cli.Command{
	Name:            "package",
	Usage:           "resolve a manifest and emit a signed wire transaction",
	ArgsUsage:       "<manifest> --<signerAlias> <keyfile> [...] [--file <var> <path>] [--outfile <path>] [--no-chain]",
	SkipFlagParsing: true,
	Action:          packageAction,
}

func packageAction(c *cli.Context) error {
	args := c.Args()
	if len(args) < 1 {
		return fmt.Errorf("package: missing <manifest> argument")
	}
	manifestPath := args[0]

	var outfile string
	noChain := false
	fileConsts := map[string]string{}
	signerKeyfiles := map[string]string{}

	rest := args[1:]
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case "--outfile":
			if i+1 >= len(rest) {
				return fmt.Errorf("package: --outfile requires a path")
			}
			outfile = rest[i+1]
			i++
		case "--no-chain":
			noChain = true
		case "--file":
			if i+2 >= len(rest) {
				return fmt.Errorf("package: --file requires <var> <path>")
			}
			varName, path := rest[i+1], rest[i+2]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("package: --file %s: %w", varName, err)
			}
			fileConsts[varName] = hex.EncodeToString(data)
			i += 2
		default:
			name := rest[i]
			if len(name) < 3 || name[:2] != "--" {
				return fmt.Errorf("package: unrecognized argument %q", name)
			}
			alias := name[2:]
			if i+1 >= len(rest) {
				return fmt.Errorf("package: --%s requires a keyfile path", alias)
			}
			signerKeyfiles[alias] = rest[i+1]
			i++
		}
	}

	tree, err := loadManifestFile(manifestPath)
	if err != nil {
		return err
	}

	stripped, bundlePaths := manifest.StripKeysetDirectives(tree)
	tree = stripped.(map[string]any)

	signers := map[string]*keyset.KeySet{}
	for _, bp := range bundlePaths {
		bundle, err := loadKeysetBundle(bp)
		if err != nil {
			return err
		}
		for alias, ks := range bundle {
			signers[alias] = ks
		}
	}
	for alias, path := range signerKeyfiles {
		ks, err := loadKeyfile(path)
		if err != nil {
			return fmt.Errorf("package: signer %q: %w", alias, err)
		}
		signers[alias] = ks
	}

	if len(fileConsts) > 0 {
		constants, _ := tree["constants"].(map[string]any)
		if constants == nil {
			constants = map[string]any{}
		}
		for name, hexVal := range fileConsts {
			constants[name] = hexVal
		}
		tree["constants"] = constants
	}

	resolved, err := manifest.Resolve(tree, signers, manifest.Options{})
	if err != nil {
		return err
	}

	var prevTxHash []byte
	if !noChain {
		if prevHex, ok := tree["prevTxHash"].(string); ok && prevHex != "" {
			prevTxHash, err = hex.DecodeString(prevHex)
			if err != nil {
				return fmt.Errorf("package: prevTxHash: %w", err)
			}
		}
	}

	result, err := txcodec.Encode(resolved, txcodec.EncodeOptions{PrevTxHash: prevTxHash})
	if err != nil {
		return err
	}
	if len(prevTxHash) == 32 && result.LinkID == "" {
		fmt.Fprintln(os.Stderr, "package: prevTxHash is all zeros; signing the base hash unchained")
	}

	if outfile == "" {
		outfile = defaultOutfile(manifestPath)
	}
	if err := os.WriteFile(outfile, result.Bytes, 0o644); err != nil {
		return fmt.Errorf("package: write %s: %w", outfile, err)
	}

	fmt.Printf("wrote %s (%d bytes)\n", outfile, len(result.Bytes))
	fmt.Println("txId:", result.TxID)
	if result.LinkID != "" {
		fmt.Println("linkId:", result.LinkID)
	}
	return nil
}
