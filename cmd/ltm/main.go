// Command ltm is the Lea transaction manifest tool: it packages a
// manifest into a signed wire transaction, verifies and decodes
// transactions, and projects execution results through a schema
// (spec.md §6).
package main

import (
	"fmt"
	"os"

	cli "gopkg.in/urfave/cli.v1"
)

var version = "dev"

func main() {
	app := cli.App{
		Version: version,
		Name:    "ltm",
		Usage:   "Lea transaction manifest tool",
		Commands: []cli.Command{
			packageCommand,
			verifyCommand,
			decodeCommand,
			decodeResultCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "ltm:", err)
		os.Exit(1)
	}
}
