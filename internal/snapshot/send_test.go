package snapshot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendCommand_Full(t *testing.T) {
	got := SendCommand("rpool/data@2_daily", nil, false, false)
	assert.Equal(t, "zfs send -Pw rpool/data@2_daily", got)
}

func TestSendCommand_IncrementalVerboseDryRun(t *testing.T) {
	parent := "rpool/data@1_daily"
	got := SendCommand("rpool/data@2_daily", &parent, true, true)
	assert.Equal(t, "zfs send -Pwvn -i rpool/data@1_daily rpool/data@2_daily", got)
}

func TestEstimateSize_ParsesLastFieldOfLastLine(t *testing.T) {
	runner := fakeRunner{responses: map[string][]string{
		"zfs send -Pwn rpool/data@2_daily": {
			"full\trpool/data@2_daily\t123456",
			"size\t654321",
		},
	}}

	got, err := estimateSize(context.Background(), runner, "rpool/data@2_daily", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(654321), got)
}

func TestEstimateSize_IncrementalUsesParentFlag(t *testing.T) {
	parent := "rpool/data@1_daily"
	runner := fakeRunner{responses: map[string][]string{
		"zfs send -Pwn -i rpool/data@1_daily rpool/data@2_daily": {
			"size\t42",
		},
	}}

	got, err := estimateSize(context.Background(), runner, "rpool/data@2_daily", &parent)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), got)
}

func TestEstimateSize_PropagatesRunnerError(t *testing.T) {
	runner := fakeRunner{errs: map[string]error{
		"zfs send -Pwn rpool/data@2_daily": assert.AnError,
	}}

	_, err := estimateSize(context.Background(), runner, "rpool/data@2_daily", nil)
	require.Error(t, err)
}

func TestEstimateSize_RejectsEmptyOutput(t *testing.T) {
	runner := fakeRunner{responses: map[string][]string{
		"zfs send -Pwn rpool/data@2_daily": {},
	}}

	_, err := estimateSize(context.Background(), runner, "rpool/data@2_daily", nil)
	require.Error(t, err)
}

func TestEstimateSize_RejectsNonNumericField(t *testing.T) {
	runner := fakeRunner{responses: map[string][]string{
		"zfs send -Pwn rpool/data@2_daily": {"size\tnot-a-number"},
	}}

	_, err := estimateSize(context.Background(), runner, "rpool/data@2_daily", nil)
	require.Error(t, err)
}
