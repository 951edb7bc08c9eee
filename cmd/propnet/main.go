// Command propnet compiles, inspects and verifies propositional network
// game descriptions.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/propnet/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(cli.GetExitCode(err))
}
