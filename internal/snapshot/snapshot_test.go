package snapshot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	responses map[string][]string
	errs      map[string]error
}

func (f fakeRunner) ExecuteByLine(_ context.Context, command string) ([]string, error) {
	if err, ok := f.errs[command]; ok {
		return nil, err
	}
	return f.responses[command], nil
}

func TestGetLocalInventory_GroupsSnapshotsByPool(t *testing.T) {
	runner := fakeRunner{responses: map[string][]string{
		"zfs list -Hp -o name": {"rpool/data", "rpool/other"},
		"zfs list -Hpt snapshot -o name,creation -s creation": {
			"rpool/data@1_daily\t1000",
			"rpool/data@2_monthly\t2000",
			"rpool/other@1_daily\t1500",
		},
	}}

	inv, err := getLocalInventory(context.Background(), runner)
	require.NoError(t, err)

	require.Len(t, inv.Pools["rpool/data"], 2)
	assert.Equal(t, "rpool/data@1_daily", inv.Pools["rpool/data"][0].Name)
	assert.Equal(t, int64(1000), inv.Pools["rpool/data"][0].Creation.Unix())
	assert.Equal(t, "rpool/data@2_monthly", inv.Pools["rpool/data"][1].Name)

	require.Len(t, inv.Pools["rpool/other"], 1)
	assert.Equal(t, "rpool/other@1_daily", inv.Pools["rpool/other"][0].Name)
}

func TestGetLocalInventory_PoolWithNoSnapshots(t *testing.T) {
	runner := fakeRunner{responses: map[string][]string{
		"zfs list -Hp -o name": {"rpool/empty"},
		"zfs list -Hpt snapshot -o name,creation -s creation": {},
	}}

	inv, err := getLocalInventory(context.Background(), runner)
	require.NoError(t, err)
	assert.Empty(t, inv.Pools["rpool/empty"])
}

func TestGetLocalInventory_PropagatesListError(t *testing.T) {
	runner := fakeRunner{errs: map[string]error{
		"zfs list -Hp -o name": assert.AnError,
	}}

	_, err := getLocalInventory(context.Background(), runner)
	require.Error(t, err)
}

func TestGetLocalInventory_RejectsMalformedSnapshotLine(t *testing.T) {
	runner := fakeRunner{responses: map[string][]string{
		"zfs list -Hp -o name": {"rpool/data"},
		"zfs list -Hpt snapshot -o name,creation -s creation": {
			"no-tab-here",
		},
	}}

	_, err := getLocalInventory(context.Background(), runner)
	require.Error(t, err)
}
