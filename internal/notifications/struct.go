package notifications

import "github.com/pmohandas/vsphere-snapjanitor/internal/cleanup"

type Webhook struct {
	URL      string
	Username string
	Password string
	Verify   bool
}

// CleanupReport is the webhook payload wrapping one run's structured report.
type CleanupReport struct {
	Service string          `json:"service"`
	Report  *cleanup.Report `json:"report"`
}
