// Command exohunter runs the light curve tools from a terminal: synthesize
// and export curves, analyse an observation file, phase-fold, look planets
// up in the NASA Exoplanet Archive and issue report access tokens.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
