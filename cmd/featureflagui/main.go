// Command featureflagui serves the authorization feature flag dashboard and
// the panel whose content follows the flags.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
