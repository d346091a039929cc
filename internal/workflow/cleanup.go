package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pmohandas/vsphere-snapjanitor/internal/cleanup"
	"github.com/pmohandas/vsphere-snapjanitor/internal/cloud"
	"github.com/pmohandas/vsphere-snapjanitor/internal/cloud/vsphere"
	"github.com/pmohandas/vsphere-snapjanitor/internal/notifications"
	"github.com/pmohandas/vsphere-snapjanitor/internal/policy"
)

// CleanupConfig carries everything one cleanup run needs; all of it comes
// from CLI flags or environment, none from ambient globals.
type CleanupConfig struct {
	EndpointURL string
	Username    string
	Password    string
	Insecure    bool

	Datacenter string
	Folder     string

	Policy  policy.RetentionPolicy
	DryRun  bool
	Workers int

	// TimeoutSeconds bounds the whole workflow (0 = run to completion).
	TimeoutSeconds int
	LogLevel       string

	Webhook notifications.Webhook
}

// RunDatacenterCleanupWorkflow executes the retention cleanup for one
// datacenter folder.
//
// Responsibilities:
//  1. Connection: a single authenticated vCenter session for the whole run,
//     released on every exit path.
//  2. Scope resolution: folder path → concrete VM list, plus per-VM retention
//     overrides read from custom attributes.
//  3. Engine: classify → delete → reconcile → report, per-snapshot failure
//     isolation inside.
//  4. Delivery: hands the structured report to the webhook collaborator when
//     one is configured.
//
// Parameters:
//   - now: the reference time for age classification (usually time.Now(),
//     injected for deterministic testing; UTC).
func RunDatacenterCleanupWorkflow(cfg CleanupConfig, now time.Time) (*cleanup.Report, error) {
	// 1. Setup Logger & Context
	logger := SetupLogger(cfg.LogLevel, cfg.EndpointURL).With("workflow", "cleanup", "datacenter", cfg.Datacenter)
	runID := fmt.Sprintf("run-%s", uuid.New().String())
	logger = logger.With("run_id", runID)

	logger.Info("Initializing snapshot cleanup workflow", "folder", cfg.Folder, "dry_run", cfg.DryRun)

	if err := cfg.Policy.Normalize(); err != nil {
		logger.Error("Retention policy rejected", "error", err)
		return nil, err
	}

	ctx := context.Background()
	if cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	// 2. Initialize vCenter Client
	vc := vsphere.Client{
		EndpointURL: cfg.EndpointURL,
		Username:    cfg.Username,
		Password:    cfg.Password,
		Insecure:    cfg.Insecure,
		Datacenter:  cfg.Datacenter,
		RetryConfig: cloud.RetryConfig{
			MaxRetries:       3,
			BaseDelay:        2 * time.Second,
			MaxDelay:         10 * time.Second,
			OperationTimeout: 30 * time.Second,
		},
	}

	if err := vc.NewClient(ctx); err != nil {
		logger.Error("vCenter client initialization failed", "error", err)
		return nil, fmt.Errorf("client init failed: %w", err)
	}
	logger.Info("vCenter connection established")
	defer func() {
		if err := vc.Logout(context.Background()); err != nil {
			logger.Warn("vCenter logout failed", "error", err)
		}
	}()

	// 3. Resolve Scope
	vms, err := vc.ResolveFolderVMs(ctx, cfg.Folder)
	if err != nil {
		logger.Error("Failed to resolve folder to virtual machines", "error", err)
		return nil, err
	}
	logger.Info("Scope resolved", "vm_count", len(vms))

	// 4. Per-VM Retention Overrides
	overrides := make(map[string]policy.RetentionPolicy)
	for _, vm := range vms {
		attrs, err := vc.VMCustomAttributes(ctx, vm)
		if err != nil {
			// Overrides are best-effort sugar; the global policy still applies.
			logger.Warn("Skipping retention override lookup", "vm", vm.Name(), "error", err)
			continue
		}
		merged, err := policy.FromAttributes(cfg.Policy, attrs)
		if err != nil {
			logger.Warn("Ignoring invalid retention override", "vm", vm.Name(), "error", err)
			continue
		}
		if merged != cfg.Policy {
			overrides[vm.Reference().Value] = merged
			logger.Info("Per-VM retention override active",
				"vm", vm.Name(), "days", merged.Days, "max_days", merged.MaxDays)
		}
	}

	// 5. Run the Engine
	engine := cleanup.Engine{
		Service:     newFolderSnapshotService(&vc, vms),
		Policy:      cfg.Policy,
		Overrides:   overrides,
		DryRun:      cfg.DryRun,
		Endpoint:    cfg.EndpointURL,
		Workers:     cfg.Workers,
		CallTimeout: 2 * time.Minute,
		Now:         func() time.Time { return now },
		RunID:       runID,
		Logger:      logger,
	}

	scope := cleanup.Scope{Datacenter: cfg.Datacenter, Folder: cfg.Folder}
	report, err := engine.Run(ctx, scope)
	if err != nil {
		logger.Error("Cleanup run failed", "error", err)
		return nil, err
	}

	logger.Info(report.Headline,
		"scanned", report.ScannedTotal,
		"reclaimed_mb", report.ReclaimedMB,
		"failed", len(report.Failed))

	// 6. Deliver the Report
	if cfg.Webhook.URL != "" {
		if err := cfg.Webhook.Notify(notifications.CleanupReport{
			Service: "snapjanitor",
			Report:  report,
		}); err != nil {
			// Delivery trouble must not mask a completed run; the report is
			// already logged above.
			logger.Error("Report delivery via webhook failed", "error", err)
		} else {
			logger.Info("Report delivered via webhook")
		}
	}

	return report, nil
}
