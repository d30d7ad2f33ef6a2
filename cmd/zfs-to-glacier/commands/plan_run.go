package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/andaag/zfs-to-glacier/internal/catalog"
	"github.com/andaag/zfs-to-glacier/internal/logger"
	"github.com/andaag/zfs-to-glacier/internal/metrics"
	"github.com/andaag/zfs-to-glacier/internal/objectstore"
	"github.com/andaag/zfs-to-glacier/internal/planner"
	"github.com/andaag/zfs-to-glacier/internal/snapshot"
	"github.com/andaag/zfs-to-glacier/pkg/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// loadAndInitLogger loads the configuration at Flags.ConfigPath and
// initializes the structured logger from it, bumping the level to DEBUG
// when --verbose is set. Returns the run's correlation id alongside cfg.
func loadAndInitLogger() (*config.Config, string, error) {
	cfg, err := config.Load(Flags.ConfigPath)
	if err != nil {
		return nil, "", fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if Flags.Verbose {
		level = "DEBUG"
	}
	if err := logger.Init(logger.Config{Level: level, Format: cfg.Logging.Format, Output: cfg.Logging.Output}); err != nil {
		return nil, "", fmt.Errorf("init logger: %w", err)
	}

	return cfg, uuid.NewString(), nil
}

// computePlan enumerates the local inventory, plans backup actions for every
// configured policy, and filters out actions already present at their
// destination bucket. backupMetrics may be nil (plan command, or sync with
// metrics disabled); every recording call goes through the nil-safe
// metrics package wrappers.
func computePlan(ctx context.Context, cfg *config.Config, client catalog.S3Lister, backupMetrics metrics.BackupMetrics) ([]planner.BackupAction, error) {
	inv, err := snapshot.GetLocalInventory(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate local inventory: %w", err)
	}

	actions := planner.Plan(inv, cfg.Backups, time.Now())
	if err := planner.ValidateOrder(inv, actions); err != nil {
		return nil, fmt.Errorf("validate plan: %w", err)
	}
	if len(actions) == 0 {
		return nil, nil
	}

	byBucket := make(map[string][]planner.BackupAction)
	for _, a := range actions {
		byBucket[a.Bucket] = append(byBucket[a.Bucket], a)
	}

	var filtered []planner.BackupAction
	for bucket, bucketActions := range byBucket {
		existing, err := catalog.ListAll(ctx, client, bucket)
		if err != nil {
			return nil, fmt.Errorf("list remote catalog for %q: %w", bucket, err)
		}
		logger.InfoCtx(ctx, "remote catalog loaded", logger.Bucket(bucket), logger.PartCount(len(existing)))

		pending := planner.FilterExisting(bucketActions, existing)
		metrics.RecordPlannedActions(backupMetrics, bucket, len(pending))
		filtered = append(filtered, pending...)
	}

	return filtered, nil
}

// newObjectStoreClient builds the S3 client outside computePlan, which takes
// it as a parameter, so the sync command can reuse the same client for
// uploads.
func newObjectStoreClient(ctx context.Context) (*s3.Client, error) {
	return objectstore.NewClient(ctx, objectstore.ClientConfig{})
}
