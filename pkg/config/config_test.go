package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MinimalConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
logging:
  level: debug
  format: json
  output: stdout

configs:
  - pool_regex: "rpool/.*"
    bucket: "zfs-rpool"
    incremental:
      snapshot_regex: "daily"
      storage_class: StandardInfrequentAccess
      expire_in_days: 40
    full:
      snapshot_regex: "monthly"
      storage_class: DeepArchive
      expire_in_days: 200
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	require.Len(t, cfg.Backups, 1)
	assert.Equal(t, "zfs-rpool", cfg.Backups[0].Bucket)
	assert.True(t, cfg.Backups[0].PoolRegexp().MatchString("rpool/backup"))
	assert.True(t, cfg.Backups[0].Full.SnapshotRegexp().MatchString("rpool/backup@1_monthly"))
	assert.Equal(t, minPartSizeFloor, cfg.Upload.MinPartSize)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
configs:
  - pool_regex: "rpool/.*"
    bucket: "zfs-rpool"
    incremental:
      snapshot_regex: "daily"
      storage_class: StandardInfrequentAccess
      expire_in_days: 40
    full:
      snapshot_regex: "monthly"
      storage_class: DeepArchive
      expire_in_days: 200
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
}

func TestLoad_RejectsInvalidStorageClass(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
configs:
  - pool_regex: "rpool/.*"
    bucket: "zfs-rpool"
    incremental:
      snapshot_regex: "daily"
      storage_class: NOT_A_CLASS
      expire_in_days: 40
    full:
      snapshot_regex: "monthly"
      storage_class: DeepArchive
      expire_in_days: 200
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_RejectsEmptyBackupList(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
logging:
  level: INFO
`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
}

func TestInitConfigToPath_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	require.NoError(t, InitConfigToPath(path, false))
	err := InitConfigToPath(path, false)
	require.Error(t, err)

	require.NoError(t, InitConfigToPath(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Backups, 1)
	assert.Equal(t, "zfs-rpool", cfg.Backups[0].Bucket)
}

func TestBackupPolicy_CompileStandalone(t *testing.T) {
	b := BackupPolicy{
		PoolPattern: "tank/.*",
		Bucket:      "b",
		Full:        TierPolicy{SnapshotPattern: "monthly", StorageClass: "STANDARD"},
		Incremental: TierPolicy{SnapshotPattern: "daily", StorageClass: "STANDARD"},
	}
	require.NoError(t, b.Compile())
	assert.True(t, b.PoolRegexp().MatchString("tank/data"))
	assert.True(t, b.Full.SnapshotRegexp().MatchString("tank/data@x_monthly"))
}
