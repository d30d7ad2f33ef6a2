package zfscmd

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute(t *testing.T) {
	out, err := New("echo hello world").Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", out)
}

func TestExecute_NonZeroExit(t *testing.T) {
	_, err := New("false").Execute(context.Background())
	require.Error(t, err)

	var exitErr *ChildExitError
	require.ErrorAs(t, err, &exitErr)
}

func TestExecuteByLine(t *testing.T) {
	lines, err := New(`printf a\nb\n\nc\n`).ExecuteByLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, lines)
}

func TestExecuteByLine_TrimsAndDropsEmpty(t *testing.T) {
	lines, err := New(`printf \tline1\t\n\n`).ExecuteByLine(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"line1"}, lines)
}

func TestSpawn_StreamsStdoutAndWaits(t *testing.T) {
	handle, err := New("echo streamed").Spawn(context.Background())
	require.NoError(t, err)

	data, err := io.ReadAll(handle.Stdout())
	require.NoError(t, err)
	assert.Equal(t, "streamed\n", string(data))

	require.NoError(t, handle.Wait())
}

func TestSpawn_NonZeroExitSurfacedOnWait(t *testing.T) {
	handle, err := New("false").Spawn(context.Background())
	require.NoError(t, err)

	_, _ = io.ReadAll(handle.Stdout())

	err = handle.Wait()
	require.Error(t, err)
	var exitErr *ChildExitError
	require.ErrorAs(t, err, &exitErr)
}

func TestEmptyCommandLine(t *testing.T) {
	_, err := New("   ").Execute(context.Background())
	require.Error(t, err)

	var spawnErr *SpawnError
	require.ErrorAs(t, err, &spawnErr)
}
