// Command zfs-to-glacier replicates ZFS snapshots to an S3-compatible
// object store, incrementally and on a retention schedule.
package main

import (
	"fmt"
	"os"

	"github.com/andaag/zfs-to-glacier/cmd/zfs-to-glacier/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
