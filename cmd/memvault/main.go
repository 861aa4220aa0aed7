// Command memvault is a small CLI over the memory subsystem, mainly for
// inspecting and maintaining a local encrypted store.
//
// Configuration comes from the environment (see core.LoadConfigFromEnv);
// the encryption key must be supplied via MEMVAULT_KEY.
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
