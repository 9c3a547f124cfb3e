// matchctl matches recognized recipes against a product catalog from the
// command line, using the same services as the HTTP server.
package main

import (
	"os"

	"github.com/dishbook/backend/cmd/matchctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
