package cli

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron-ui/server"
	"github.com/go-co-op/gocron/v2"
	"github.com/pmohandas/vsphere-snapjanitor/internal/workflow"
	"github.com/spf13/cobra"
)

var (
	cleanupSchedule string
	bindAddress     string
)

var daemonCommand = &cobra.Command{
	Use:     "daemon",
	Short:   "Run Snapjanitor in daemon mode",
	GroupID: "snapjanitor",
	Long:    `Starts Snapjanitor as a background service that runs the snapshot cleanup workflow on a cron schedule.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		banner := fmt.Sprintf("Snapjanitor - Daemon Mode \n\nVersion: %s\nBuild Date: %s", SnapjanitorVersion, SnapjanitorDate)
		fmt.Println(headerStyle.Render(banner))

		dlog := workflow.SetupLogger(logLevel, vcenterURL).With("component", "daemon")

		s, err := gocron.NewScheduler()
		if err != nil {
			return fmt.Errorf("failed to create scheduler: %w", err)
		}
		s.Start()
		dlog.Info("Scheduler started", "datacenter", datacenter)

		// Declared first so the task closure can read back its own job handle.
		var cleanupJob gocron.Job

		cleanupJob, jobErr := s.NewJob(
			gocron.CronJob(
				cleanupSchedule,
				false,
			),
			gocron.NewTask(func() {
				if _, err := workflow.RunDatacenterCleanupWorkflow(cleanupConfig(), time.Now().UTC()); err != nil {
					dlog.Error("Scheduled cleanup run failed", "error", err)
				}

				if cleanupJob != nil {
					if nextRun, err := cleanupJob.NextRun(); err == nil {
						dlog.Info("Cleanup workflow completed",
							"next_run", nextRun.Format(time.RFC3339),
							"job_id", cleanupJob.ID())
					}
				}
			}),
			gocron.WithName("Snapshot Cleanup Workflow"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if jobErr != nil {
			return jobErr
		}

		if nextRun, err := cleanupJob.NextRun(); err == nil {
			dlog.Info("Job Scheduled",
				"job_name", cleanupJob.Name(),
				"job_id", cleanupJob.ID(),
				"schedule", cleanupSchedule,
				"next_run", nextRun.Format(time.RFC3339))
		}

		srv := server.NewServer(s, 8080, server.WithTitle("Snapjanitor - Dashboard"))
		dlog.Info("Snapjanitor scheduler UI started", "address", bindAddress)
		if err := http.ListenAndServe(bindAddress, srv.Router); err != nil {
			dlog.Error("Failed to start UI server", "error", err)
			return s.Shutdown()
		}

		// Block until signal.
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		dlog.Warn("Shutting down scheduler due to system signal...")
		return s.Shutdown()
	},
}

func init() {
	rootCommand.AddCommand(daemonCommand)
	daemonCommand.Flags().StringVar(&cleanupSchedule, "cleanup-schedule", "0 */6 * * *", "Cron schedule for the cleanup workflow")
	daemonCommand.Flags().StringVar(&bindAddress, "bind-address", "0.0.0.0:8080", "Address to bind the UI server")
	daemonCommand.Flags().StringVar(&folder, "folder", "*", "Inventory folder path to clean, relative to the datacenter VM folder")
	daemonCommand.Flags().IntVar(&retentionDays, "days", 15, "Minimum age in days before a snapshot is delete-eligible")
	daemonCommand.Flags().IntVar(&maxDays, "max-days", 30, "Hard ceiling age in days; past this the keep marker is ignored")
	daemonCommand.Flags().StringVar(&keepMarker, "keep-marker", "keep", "Case-insensitive name token that exempts a snapshot inside the window")
	daemonCommand.Flags().BoolVar(&dryRun, "dry-run", false, "Report intended deletions without performing them")
	daemonCommand.Flags().IntVar(&workers, "workers", 4, "Parallel delete attempts per run")
}
