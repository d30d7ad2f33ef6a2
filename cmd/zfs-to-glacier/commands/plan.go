package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/andaag/zfs-to-glacier/internal/cli/output"
	"github.com/andaag/zfs-to-glacier/internal/logger"
	"github.com/andaag/zfs-to-glacier/internal/planner"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute and print the backup plan without uploading anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, runID, err := loadAndInitLogger()
		if err != nil {
			return err
		}

		ctx := logger.WithContext(cmd.Context(), logger.NewLogContext(runID).WithOperation("plan"))

		client, err := newObjectStoreClient(ctx)
		if err != nil {
			return err
		}

		actions, err := computePlan(ctx, cfg, client, nil)
		if err != nil {
			return err
		}

		printPlan(os.Stdout, actions)
		return nil
	},
}

func printPlan(w io.Writer, actions []planner.BackupAction) {
	table := output.NewActionTable("BUCKET", "KEY", "PARENT", "STORAGE CLASS", "SNAPSHOT CREATED")
	for _, a := range actions {
		parent := "full"
		if a.Parent != nil {
			parent = *a.Parent
		}
		table.AddRow(a.Bucket, a.Key(), parent, a.StorageClass, a.Snapshot.Creation.Format("2006-01-02T15:04:05Z07:00"))
	}
	output.PrintTable(w, table)
	fmt.Fprintf(w, "\n%d action(s) pending\n", len(actions))
}
