// Command pqlc is the PQLC compiler's CLI entry point.
//
// Grounded on _examples/leapstack-labs-leapsql/cmd/leapsql/main.go's trivial
// main() shape: all real work happens in internal/cli.
package main

import (
	"os"

	"github.com/pql-lang/pqlc/cmd/pqlc/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
