package planner

import (
	"fmt"

	"github.com/andaag/zfs-to-glacier/internal/snapshot"
)

// InvariantViolation reports a BackupAction whose parent reference cannot be
// satisfied by the inventory it was planned against. planPool only ever
// assigns an in-pool, earlier-created snapshot as a parent, so this should
// never fire; ValidateOrder exists as a defensive check run once per plan,
// not as part of planning itself.
type InvariantViolation struct {
	Action BackupAction
	Reason string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("planner: invariant violated for %s: %s", e.Action.Snapshot.Name, e.Reason)
}

// ValidateOrder checks that every action with a parent references a
// snapshot present in inv whose creation time precedes the action's own.
func ValidateOrder(inv *snapshot.Inventory, actions []BackupAction) error {
	byName := make(map[string]snapshot.Snapshot)
	for _, snapshots := range inv.Pools {
		for _, s := range snapshots {
			byName[s.Name] = s
		}
	}

	for _, a := range actions {
		if a.Parent == nil {
			continue
		}

		parent, found := byName[*a.Parent]
		if !found {
			return &InvariantViolation{Action: a, Reason: fmt.Sprintf("parent %q not present in inventory", *a.Parent)}
		}
		if !parent.Creation.Before(a.Snapshot.Creation) {
			return &InvariantViolation{Action: a, Reason: fmt.Sprintf("parent %q does not precede snapshot", *a.Parent)}
		}
	}

	return nil
}
