// Command sagatx submits Solana transactions through the saga-tx pipeline
// and manages the local keystore and pending-transaction journal.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
