package cli

import (
	"fmt"
	"time"

	"github.com/pmohandas/vsphere-snapjanitor/internal/notifications"
	"github.com/pmohandas/vsphere-snapjanitor/internal/policy"
	"github.com/pmohandas/vsphere-snapjanitor/internal/workflow"
	"github.com/spf13/cobra"
)

var (
	folder        string
	retentionDays int
	maxDays       int
	keepMarker    string
	dryRun        bool
	workers       int
)

var cleanupCommand = &cobra.Command{
	Use:     "cleanup",
	GroupID: "snapjanitor",
	Short:   "Execute one snapshot cleanup run",
	Long: `Enumerates all snapshots under the given folder, deletes those past the
retention window (honoring the keep marker up to the hard ceiling), verifies
the deletions against a fresh enumeration, and emits a structured report.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(headerStyle.Render("Snapjanitor - Cleanup Run"))
		_, err := workflow.RunDatacenterCleanupWorkflow(cleanupConfig(), time.Now().UTC())
		return err
	},
}

// cleanupConfig assembles the workflow config from the bound flags.
func cleanupConfig() workflow.CleanupConfig {
	return workflow.CleanupConfig{
		EndpointURL:    vcenterURL,
		Username:       vcenterUsername,
		Password:       vcenterPassword,
		Insecure:       insecure,
		Datacenter:     datacenter,
		Folder:         folder,
		Policy:         policy.RetentionPolicy{Days: retentionDays, MaxDays: maxDays, KeepMarker: keepMarker},
		DryRun:         dryRun,
		Workers:        workers,
		TimeoutSeconds: timeout,
		LogLevel:       logLevel,
		Webhook: notifications.Webhook{
			URL:      webhookURL,
			Username: webhookUsername,
			Password: webhookPassword,
		},
	}
}

func init() {
	rootCommand.AddCommand(cleanupCommand)
	cleanupCommand.Flags().StringVar(&folder, "folder", "*", "Inventory folder path to clean, relative to the datacenter VM folder")
	cleanupCommand.Flags().IntVar(&retentionDays, "days", 15, "Minimum age in days before a snapshot is delete-eligible")
	cleanupCommand.Flags().IntVar(&maxDays, "max-days", 30, "Hard ceiling age in days; past this the keep marker is ignored")
	cleanupCommand.Flags().StringVar(&keepMarker, "keep-marker", policy.DefaultKeepMarker, "Case-insensitive name token that exempts a snapshot inside the window")
	cleanupCommand.Flags().BoolVar(&dryRun, "dry-run", false, "Report intended deletions without performing them")
	cleanupCommand.Flags().IntVar(&workers, "workers", 4, "Parallel delete attempts per run")
}
