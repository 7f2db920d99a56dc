// Command recipectl runs administrative tasks against the recipe server's
// database: waiting for it at deploy time and managing accounts.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
