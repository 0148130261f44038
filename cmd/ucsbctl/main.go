// Command ucsbctl runs maintenance tasks against the UCSB API database:
// schema migrations, API key issuance and admin promotion.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
