// Package snapshot models the local ZFS inventory (pools and their
// snapshots) and builds it by shelling out to zfs(8) via internal/zfscmd.
package snapshot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andaag/zfs-to-glacier/internal/zfscmd"
)

// Snapshot is one ZFS snapshot: its full name ("pool/dataset@snapname") and
// creation time.
type Snapshot struct {
	Name     string
	Creation time.Time
}

func (s Snapshot) String() string {
	return "Snapshot " + s.Name
}

// Inventory is the local ZFS state: every dataset mapped to its snapshots,
// ordered oldest-first (the order `zfs list -s creation` returns them in).
type Inventory struct {
	Pools map[string][]Snapshot
}

// Runner abstracts subprocess execution so tests can substitute canned
// output instead of shelling out to a real zfs binary.
type Runner interface {
	ExecuteByLine(ctx context.Context, command string) ([]string, error)
}

// commandRunner is the Runner backed by internal/zfscmd.
type commandRunner struct{}

func (commandRunner) ExecuteByLine(ctx context.Context, command string) ([]string, error) {
	return zfscmd.New(command).ExecuteByLine(ctx)
}

// DefaultRunner is the Runner used by GetLocalInventory.
var DefaultRunner Runner = commandRunner{}

// GetLocalInventory enumerates every dataset and every snapshot on the local
// machine, then groups snapshots under the dataset they belong to.
func GetLocalInventory(ctx context.Context) (*Inventory, error) {
	return getLocalInventory(ctx, DefaultRunner)
}

func getLocalInventory(ctx context.Context, runner Runner) (*Inventory, error) {
	pools, err := runner.ExecuteByLine(ctx, "zfs list -Hp -o name")
	if err != nil {
		return nil, fmt.Errorf("snapshot: failed to list datasets: %w", err)
	}

	snapshotLines, err := runner.ExecuteByLine(ctx, "zfs list -Hpt snapshot -o name,creation -s creation")
	if err != nil {
		return nil, fmt.Errorf("snapshot: failed to list snapshots: %w", err)
	}

	snapshots := make([]Snapshot, 0, len(snapshotLines))
	for _, line := range snapshotLines {
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("snapshot: malformed zfs list line %q", line)
		}
		unixSeconds, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("snapshot: malformed creation time %q: %w", parts[1], err)
		}
		snapshots = append(snapshots, Snapshot{
			Name:     parts[0],
			Creation: time.Unix(unixSeconds, 0),
		})
	}

	result := make(map[string][]Snapshot, len(pools))
	for _, pool := range pools {
		prefix := pool + "@"
		var forPool []Snapshot
		for _, s := range snapshots {
			if strings.HasPrefix(s.Name, prefix) {
				forPool = append(forPool, s)
			}
		}
		result[pool] = forPool
	}

	return &Inventory{Pools: result}, nil
}
