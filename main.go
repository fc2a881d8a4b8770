// Prefill - field prefill mappings for blueprint form graphs.
//
// Prefill loads a blueprint's form dependency graph, lists the fields each
// form can be prefilled from (direct parents, transitive ancestors and
// global properties) and stores the chosen mappings.
package main

import (
	"fmt"
	"os"

	"github.com/Benny93/prefill-go/cmd"
)

func main() {
	cli := cmd.NewCLI()

	if err := cli.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
