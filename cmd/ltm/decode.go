package main

import (
	"fmt"
	"os"

	"github.com/LEA-Blockchain/ltm/addr"
	"github.com/LEA-Blockchain/ltm/keyset"
	"github.com/LEA-Blockchain/ltm/manifest"
	"github.com/LEA-Blockchain/ltm/txcodec"
	cli "gopkg.in/urfave/cli.v1"
)

var decodeCommand = cli.Command{
	Name:      "decode",
	Usage:     "decode a wire transaction, optionally labeling instructions from a manifest",
	ArgsUsage: "<tx>",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "manifest", Usage: "original manifest used to label instructions (resolved with no signer keys, so a manifest whose instructions depend on $pubset(...) falls back to an unlabeled decode)"},
		cli.StringFlag{Name: "outfile", Usage: "write JSON output here instead of stdout"},
		cli.BoolFlag{Name: "strip-vm-header", Usage: "strip the \"LEAB\" VM wrapper before decoding"},
	},
	Action: decodeAction,
}

func decodeAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("decode: missing <tx> argument")
	}
	txPath := c.Args().Get(0)
	raw, err := os.ReadFile(txPath)
	if err != nil {
		return fmt.Errorf("decode: read %s: %w", txPath, err)
	}

	if c.Bool("strip-vm-header") {
		raw, err = txcodec.StripVM(raw)
		if err != nil {
			return err
		}
	}

	hrp := addr.DefaultHRP
	var resolved *manifest.Resolved
	if mpath := c.String("manifest"); mpath != "" {
		resolved, hrp, err = bestEffortResolve(mpath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "decode: manifest-aware labeling unavailable (%v); decoding without it\n", err)
			resolved = nil
		}
	}

	decoded, err := txcodec.Decode(raw, resolved)
	if err != nil {
		return err
	}

	out, err := renderDecoded(decoded, hrp)
	if err != nil {
		return err
	}

	if outfile := c.String("outfile"); outfile != "" {
		return os.WriteFile(outfile, out, 0o644)
	}
	fmt.Println(string(out))
	return nil
}

// bestEffortResolve resolves a manifest with no signer keys loaded, for
// pure decode-side instruction labeling. verify/decode/decode-result do
// not accept signer keyfiles (spec.md §6), so any manifest that relies
// on $pubset(...) cannot be fully resolved here; callers fall back to
// an unlabeled decode when this fails.
func bestEffortResolve(manifestPath string) (*manifest.Resolved, string, error) {
	tree, err := loadManifestFile(manifestPath)
	if err != nil {
		return nil, addr.DefaultHRP, err
	}
	stripped, _ := manifest.StripKeysetDirectives(tree)
	tree = stripped.(map[string]any)
	noSigners := map[string]*keyset.KeySet{}
	resolved, err := manifest.Resolve(tree, noSigners, manifest.Options{})
	if err != nil {
		return nil, addr.DefaultHRP, err
	}
	return resolved, resolved.HRP, nil
}
