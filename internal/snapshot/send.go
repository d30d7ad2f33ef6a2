package snapshot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/andaag/zfs-to-glacier/internal/zfscmd"
)

// SendCommand builds the `zfs send` command line for one BackupAction: a
// full send of target when parent is nil, or an incremental send from
// parent otherwise. dryRun adds -n (estimate only, nothing streamed);
// verbose adds -v. Mirrors spec.md §6's "zfs send -Pw[v][n] [-i <parent>]
// <snapshot>" command shape.
func SendCommand(target string, parent *string, dryRun, verbose bool) string {
	var b strings.Builder
	b.WriteString("zfs send -Pw")
	if verbose {
		b.WriteByte('v')
	}
	if dryRun {
		b.WriteByte('n')
	}
	if parent != nil {
		fmt.Fprintf(&b, " -i %s", *parent)
	}
	fmt.Fprintf(&b, " %s", target)
	return b.String()
}

// EstimateSize runs the dry-run form of the send and parses the estimated
// byte size off the last tab-separated field of its last output line.
func EstimateSize(ctx context.Context, target string, parent *string) (uint64, error) {
	return estimateSize(ctx, DefaultRunner, target, parent)
}

func estimateSize(ctx context.Context, runner Runner, target string, parent *string) (uint64, error) {
	cmd := SendCommand(target, parent, true, false)
	lines, err := runner.ExecuteByLine(ctx, cmd)
	if err != nil {
		return 0, fmt.Errorf("snapshot: dry-run send failed: %w", err)
	}
	if len(lines) == 0 {
		return 0, fmt.Errorf("snapshot: dry-run send produced no output")
	}

	fields := strings.Split(lines[len(lines)-1], "\t")
	estimate, err := strconv.ParseUint(fields[len(fields)-1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("snapshot: malformed dry-run estimate %q: %w", lines[len(lines)-1], err)
	}
	return estimate, nil
}

// Send spawns the real (non-dry-run) send, streaming the snapshot onto its
// stdout for the upload engine to consume.
func Send(ctx context.Context, target string, parent *string, verbose bool) (zfscmd.ProcessHandle, error) {
	cmd := SendCommand(target, parent, false, verbose)
	return zfscmd.New(cmd).Spawn(ctx)
}
