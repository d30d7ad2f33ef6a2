package config

import (
	"strings"

	"github.com/andaag/zfs-to-glacier/internal/bytesize"
)

// ApplyDefaults fills in zero-valued fields with sensible defaults. Called
// after unmarshaling, before Validate.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyMetricsDefaults(&cfg.Metrics)
	applyUploadDefaults(&cfg.Upload)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Addr == "" {
		cfg.Addr = ":9090"
	}
}

// minPartSizeFloor is the minimum part size spec.md §4.4.1 requires as the
// starting point of the doubling search.
const minPartSizeFloor = 8 * bytesize.MiB

func applyUploadDefaults(cfg *UploadConfig) {
	if cfg.MinPartSize < minPartSizeFloor {
		cfg.MinPartSize = minPartSizeFloor
	}
}

// defaultSampleConfig returns the document written by `init`/`InitConfig`.
// Mirrors the original tool's write_default_config sample.
func defaultSampleConfig() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "INFO", Format: "text", Output: "stdout"},
		Metrics: MetricsConfig{Enabled: false, Addr: ":9090"},
		Upload:  UploadConfig{MinPartSize: minPartSizeFloor},
		Backups: []BackupPolicy{
			{
				PoolPattern: "rpool/.*",
				Bucket:      "zfs-rpool",
				Incremental: TierPolicy{
					SnapshotPattern: "daily",
					StorageClass:    "StandardInfrequentAccess",
					ExpireDays:      40,
				},
				Full: TierPolicy{
					SnapshotPattern: "monthly",
					StorageClass:    "DeepArchive",
					ExpireDays:      200,
				},
			},
		},
	}
}
