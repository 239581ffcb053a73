// Command tangle-rdb is the ingest daemon: it subscribes to a transaction
// feed, maintains the tangle's identity cache, and writes resulting rows
// to a relational store.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	cmd := &cobra.Command{
		Use:   "tangle-rdb",
		Short: "Streaming ingester for a transaction tangle",
		RunE:  runRoot,
	}
	if err := bindFlags(cmd); err != nil {
		fmt.Fprintln(os.Stderr, "tangle-rdb:", err)
		os.Exit(1)
	}
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
