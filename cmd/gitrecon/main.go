// Command gitrecon scans GitHub and GitLab accounts for leaked commit
// emails and public metadata.
package main

import (
	"fmt"
	"os"

	"github.com/custodia-labs/gitrecon-cli/internal/adapters/driving/cli"
)

// version is set at build time via -ldflags.
var version = "0.1.0"

func main() {
	if err := cli.Execute(version); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
