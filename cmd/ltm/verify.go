package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/LEA-Blockchain/ltm/addr"
	"github.com/LEA-Blockchain/ltm/manifest"
	"github.com/LEA-Blockchain/ltm/txcodec"
	cli "gopkg.in/urfave/cli.v1"
)

var verifyCommand = cli.Command{
	Name:      "verify",
	Usage:     "decode a transaction and verify it when a single embedded pubset is available",
	ArgsUsage: "<tx> [<manifest>]",
	Action:    verifyAction,
}

var leabMagic = []byte("LEAB")

func verifyAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("verify: missing <tx> argument")
	}
	txPath := c.Args().Get(0)
	raw, err := os.ReadFile(txPath)
	if err != nil {
		return fmt.Errorf("verify: read %s: %w", txPath, err)
	}
	if bytes.HasPrefix(raw, leabMagic) {
		if stripped, err := txcodec.StripVM(raw); err == nil {
			raw = stripped
		}
	}

	hrp := addr.DefaultHRP
	var resolved *manifest.Resolved
	if c.NArg() >= 2 {
		resolved, hrp, err = bestEffortResolve(c.Args().Get(1))
		if err != nil {
			fmt.Fprintf(os.Stderr, "verify: manifest-aware labeling unavailable (%v); decoding without it\n", err)
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
	fmt.Println(string(out))

	// verify requires no signer keyfiles (spec.md §6); the only public
	// key this command can use is a labeled INLINE pubset in the decode.
	// Signature checking is only attempted in that narrow case.
	// bestEffortResolve loads no signer keys, so a manifest that uses
	// $pubset(...) does not resolve, the decode stays unlabeled, and no
	// pubset is found here.
	if len(decoded.Signatures) != 1 {
		fmt.Printf("skipping signature verification: transaction carries %d signature pair(s), not exactly one\n", len(decoded.Signatures))
		return nil
	}
	for _, inv := range decoded.Invocations {
		for _, instr := range inv.Instructions {
			if instr.Kind != "INLINE" || instr.Pubset == nil {
				continue
			}
			result, err := txcodec.VerifySingleSigner(decoded, instr.Pubset)
			if err != nil {
				return err
			}
			fmt.Printf("verify: ok=%v ed25519=%v falcon512=%v (pubset address %s)\n",
				result.OK, result.Ed25519, result.Falcon512, addrString(instr.Pubset.Address, hrp))
			if !result.OK {
				os.Exit(1)
			}
			return nil
		}
	}
	fmt.Println("skipping signature verification: no embedded pubset found (verify via a wallet that knows the signer's public key)")
	return nil
}
