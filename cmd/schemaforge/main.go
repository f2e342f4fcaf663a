// Command schemaforge compiles schema grammars, validates data against them
// and runs the extraction service.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "schemaforge:", err)
		os.Exit(1)
	}
}
