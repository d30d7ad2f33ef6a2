// Package planner computes the ordered list of backup actions a run should
// perform: which snapshots get uploaded, whether each is a full or
// incremental transfer, and what parent an incremental is based on. It then
// filters that plan against a remote catalog so only new work remains.
package planner

import (
	"strings"
	"time"

	"github.com/andaag/zfs-to-glacier/internal/catalog"
	"github.com/andaag/zfs-to-glacier/internal/logger"
	"github.com/andaag/zfs-to-glacier/internal/snapshot"
	"github.com/andaag/zfs-to-glacier/pkg/config"
)

// BackupAction is one snapshot this run should upload.
type BackupAction struct {
	Snapshot     snapshot.Snapshot
	Parent       *string
	Bucket       string
	StorageClass string
}

// Key derives the destination object key: "full/" or "incremental/"
// depending on whether Parent is set, with '@' replaced by "_AT_".
func (a BackupAction) Key() string {
	prefix := "full/"
	if a.Parent != nil {
		prefix = "incremental/"
	}
	return prefix + strings.ReplaceAll(a.Snapshot.Name, "@", "_AT_")
}

// Plan walks every pool in inv that matches a policy's pool pattern and
// emits the ordered list of BackupActions for it, per spec.md §4.3. Emission
// order across pools is the inventory's map iteration order and is not
// deterministic; callers must not rely on cross-pool ordering.
func Plan(inv *snapshot.Inventory, policies []config.BackupPolicy, now time.Time) []BackupAction {
	var actions []BackupAction

	for pool, snapshots := range inv.Pools {
		for _, policy := range policies {
			if !policy.PoolRegexp().MatchString(pool) {
				continue
			}
			actions = append(actions, planPool(pool, snapshots, policy, now)...)
		}
	}

	return actions
}

// planPool runs the single-pool state machine: a last-uploadable reference
// is carried across snapshots in creation order and used as the parent for
// the next matched incremental.
func planPool(pool string, snapshots []snapshot.Snapshot, policy config.BackupPolicy, now time.Time) []BackupAction {
	var actions []BackupAction
	var lastUploadable *snapshot.Snapshot

	for i := range snapshots {
		s := snapshots[i]

		switch {
		case policy.Incremental.SnapshotRegexp().MatchString(s.Name):
			if lastUploadable == nil {
				logger.Warn("skipping incremental snapshot with no prior uploadable parent",
					logger.Pool(pool), logger.Snapshot(s.Name))
				continue
			}

			parent := lastUploadable.Name
			if withinRetention(s.Creation, policy.Incremental.ExpireDays, now) {
				actions = append(actions, BackupAction{
					Snapshot:     s,
					Parent:       &parent,
					Bucket:       policy.Bucket,
					StorageClass: policy.Incremental.StorageClass,
				})
			}
			// Updates last-uploadable regardless of expiry, but only
			// because a parent existed above (see spec.md §9 "Open
			// Questions", preserved intentionally).
			lastUploadable = &snapshots[i]

		case policy.Full.SnapshotRegexp().MatchString(s.Name):
			if withinRetention(s.Creation, policy.Full.ExpireDays, now) {
				actions = append(actions, BackupAction{
					Snapshot:     s,
					Parent:       nil,
					Bucket:       policy.Bucket,
					StorageClass: policy.Full.StorageClass,
				})
			}
			lastUploadable = &snapshots[i]
		}
	}

	return actions
}

// withinRetention reports whether creation is within expireDays+1 days of
// now. The extra grace day keeps actions stable across the day boundary
// just before the store's own lifecycle rule would expire the object.
func withinRetention(creation time.Time, expireDays int64, now time.Time) bool {
	age := now.Sub(creation)
	limit := time.Duration(expireDays+1) * 24 * time.Hour
	return age <= limit
}

// FilterExisting drops any action whose derived key is already present in
// existing, the remote catalog listing for its bucket.
func FilterExisting(actions []BackupAction, existing map[string]catalog.Object) []BackupAction {
	filtered := make([]BackupAction, 0, len(actions))
	for _, a := range actions {
		if _, found := existing[a.Key()]; found {
			continue
		}
		filtered = append(filtered, a)
	}
	return filtered
}
