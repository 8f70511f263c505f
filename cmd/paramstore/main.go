// Command paramstore manages a catalog of zk-SNARK parameter files.
package main

import (
	"os"

	"github.com/meigma/paramstore/cmd/paramstore/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
