package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/andaag/zfs-to-glacier/internal/planner"
	"github.com/andaag/zfs-to-glacier/internal/snapshot"
	"github.com/stretchr/testify/assert"
)

func TestPrintPlan_ListsEveryAction(t *testing.T) {
	parent := "rpool/data@1_full"
	actions := []planner.BackupAction{
		{
			Snapshot:     snapshot.Snapshot{Name: "rpool/data@1_full", Creation: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
			Bucket:       "backups",
			StorageClass: "DeepArchive",
		},
		{
			Snapshot:     snapshot.Snapshot{Name: "rpool/data@2_daily", Creation: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
			Parent:       &parent,
			Bucket:       "backups",
			StorageClass: "StandardInfrequentAccess",
		},
	}

	var buf bytes.Buffer
	printPlan(&buf, actions)

	out := buf.String()
	assert.Contains(t, out, "full/rpool/data_AT_1_full")
	assert.Contains(t, out, "incremental/rpool/data_AT_2_daily")
	assert.Contains(t, out, "2 action(s) pending")
}

func TestPrintPlan_EmptyPlan(t *testing.T) {
	var buf bytes.Buffer
	printPlan(&buf, nil)
	assert.True(t, strings.Contains(buf.String(), "0 action(s) pending"))
}

func TestActionTags_FullHasLiteralParent(t *testing.T) {
	action := planner.BackupAction{
		Snapshot:     snapshot.Snapshot{Name: "rpool/data@1_full", Creation: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		Bucket:       "backups",
		StorageClass: "DeepArchive",
	}

	tags := actionTags(action)
	assert.Equal(t, "full", tags["parent"])
	assert.Equal(t, "zfs send -Pw rpool/data@1_full", tags["backup_cmd"])
	assert.Equal(t, "2024-01-01T00:00:00Z", tags["creation_date"])
}

func TestActionTags_IncrementalHasParentName(t *testing.T) {
	parent := "rpool/data@1_full"
	action := planner.BackupAction{
		Snapshot: snapshot.Snapshot{Name: "rpool/data@2_daily", Creation: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		Parent:   &parent,
	}

	tags := actionTags(action)
	assert.Equal(t, "rpool/data@1_full", tags["parent"])
	assert.Equal(t, "zfs send -Pw -i rpool/data@1_full rpool/data@2_daily", tags["backup_cmd"])
}
