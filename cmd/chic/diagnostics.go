package main

import (
	"fmt"
	"os"

	"github.com/chic-lang/chicc/internal/driver"
)

// printDiagnostics renders every collected diagnostic to stderr, one per
// line, in the Error()-formatted shape diag.Diagnostic already provides.
func printDiagnostics(res *driver.Result) {
	for _, d := range res.Diagnostics.Items() {
		fmt.Fprintln(os.Stderr, d.Error())
	}
}
