package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/andaag/zfs-to-glacier/internal/logger"
	"github.com/andaag/zfs-to-glacier/internal/metrics"
	promMetrics "github.com/andaag/zfs-to-glacier/internal/metrics/prometheus"
	"github.com/andaag/zfs-to-glacier/internal/planner"
	"github.com/andaag/zfs-to-glacier/internal/progress"
	"github.com/andaag/zfs-to-glacier/internal/snapshot"
	"github.com/andaag/zfs-to-glacier/internal/upload"
	"github.com/andaag/zfs-to-glacier/pkg/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var syncDryRun bool
var syncWatch bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Compute the plan and upload every missing snapshot",
	RunE:  runSync,
}

func init() {
	syncCmd.Flags().BoolVarP(&syncDryRun, "dry-run", "n", false, "Print the plan but perform no uploads")
	syncCmd.Flags().BoolVar(&syncWatch, "watch", false, "Re-run sync whenever the config file changes")
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, runID, err := loadAndInitLogger()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	watchForSignal(cancel)

	ctx = logger.WithContext(ctx, logger.NewLogContext(runID).WithOperation("sync"))
	logger.InfoCtx(ctx, "sync started", logger.RunID(runID))

	backupMetrics, stopMetrics := startMetricsServer(ctx, cfg)
	if stopMetrics != nil {
		defer stopMetrics()
	}

	client, err := newObjectStoreClient(ctx)
	if err != nil {
		return err
	}

	if err := syncOnce(ctx, cfg, client, backupMetrics); err != nil {
		return err
	}

	if !syncWatch {
		return nil
	}

	return watchAndResync(ctx, cfg, client, backupMetrics)
}

// syncOnce computes the plan once against cfg and uploads every action in it
// (or just prints the plan, under --dry-run).
func syncOnce(ctx context.Context, cfg *config.Config, client *s3.Client, backupMetrics metrics.BackupMetrics) error {
	actions, err := computePlan(ctx, cfg, client, backupMetrics)
	if err != nil {
		return err
	}
	logger.InfoCtx(ctx, "plan computed", logger.PartCount(len(actions)))

	if syncDryRun {
		printPlan(os.Stdout, actions)
		return nil
	}

	engine := upload.New(client)
	engine.SetMetrics(backupMetrics)
	engine.SetMinPartSize(cfg.Upload.MinPartSize.Int64())

	barEnabled := progress.Enabled()

	for i, action := range actions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := runOne(ctx, engine, action, i+1, len(actions), barEnabled); err != nil {
			return fmt.Errorf("action %q: %w", action.Key(), err)
		}
	}

	logger.InfoCtx(ctx, "sync completed", logger.PartCount(len(actions)))
	return nil
}

// watchAndResync re-runs syncOnce every time the config file on disk
// changes, until ctx is cancelled (Ctrl-C or SIGTERM). A resync that fails
// is logged and does not stop watching; the next config change gets another
// attempt.
func watchAndResync(ctx context.Context, cfg *config.Config, client *s3.Client, backupMetrics metrics.BackupMetrics) error {
	resyncCh := make(chan *config.Config, 1)
	err := config.Watch(Flags.ConfigPath, func(updated *config.Config) {
		select {
		case resyncCh <- updated:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}

	logger.InfoCtx(ctx, "watching config for changes")
	for {
		select {
		case <-ctx.Done():
			return nil
		case updated := <-resyncCh:
			logger.InfoCtx(ctx, "config changed, resyncing")
			if err := syncOnce(ctx, updated, client, backupMetrics); err != nil {
				logger.ErrorCtx(ctx, "resync failed", logger.Err(err))
			}
		}
	}
}

func runOne(ctx context.Context, engine *upload.Engine, action planner.BackupAction, index, total int, barEnabled bool) error {
	dataset := strings.SplitN(action.Snapshot.Name, "@", 2)[0]
	logCtx := logger.FromContext(ctx).WithPool(dataset).WithBucket(action.Bucket)
	ctx = logger.WithContext(ctx, logCtx)

	logger.InfoCtx(ctx, "processing action", logger.Key(action.Key()))
	fmt.Printf("[%d/%d] %s\n", index, total, action.Key())

	estimatedSize, err := snapshot.EstimateSize(ctx, action.Snapshot.Name, action.Parent)
	if err != nil {
		return fmt.Errorf("estimate size: %w", err)
	}

	process, err := snapshot.Send(ctx, action.Snapshot.Name, action.Parent, Flags.Verbose)
	if err != nil {
		return fmt.Errorf("spawn send: %w", err)
	}

	req := upload.Request{
		Bucket:        action.Bucket,
		Key:           action.Key(),
		StorageClass:  action.StorageClass,
		EstimatedSize: estimatedSize,
		Tags:          actionTags(action),
		Process:       process,
		Progress:      progress.NoopFunc,
	}

	var bar *progress.Bar
	if barEnabled {
		bar = progress.New(estimatedSize, Flags.Verbose).Start()
		req.Progress = bar.Func()
	}

	bytesSent, err := engine.Upload(ctx, req)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	logger.InfoCtx(ctx, "action completed", logger.Key(action.Key()), logger.Size(bytesSent))
	return nil
}

func actionTags(action planner.BackupAction) upload.Tags {
	parent := "full"
	if action.Parent != nil {
		parent = *action.Parent
	}
	cmd := snapshot.SendCommand(action.Snapshot.Name, action.Parent, false, Flags.Verbose)

	return upload.Tags{
		"backup_cmd":    cmd,
		"parent":        parent,
		"creation_date": action.Snapshot.Creation.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func startMetricsServer(ctx context.Context, cfg *config.Config) (metrics.BackupMetrics, func()) {
	if !cfg.Metrics.Enabled {
		return nil, nil
	}

	reg := prometheus.NewRegistry()
	backupMetrics := promMetrics.New(reg)
	server := metrics.NewServer(cfg.Metrics.Addr, reg)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := server.Start(ctx); err != nil {
			logger.ErrorCtx(ctx, "metrics server stopped with error", logger.Err(err))
		}
	}()

	return backupMetrics, func() {
		shutdownCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		_ = server.Stop(shutdownCtx)
		<-done
	}
}

func watchForSignal(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		signal.Stop(sigCh)
		cancel()
	}()
}
