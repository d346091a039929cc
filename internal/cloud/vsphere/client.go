package vsphere

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/pmohandas/vsphere-snapjanitor/internal/cloud"
	"github.com/vmware/govmomi"
	"github.com/vmware/govmomi/find"
	"github.com/vmware/govmomi/object"
	"github.com/vmware/govmomi/vim25/soap"
)

// Client manages the vCenter session and inventory lookups.
// It wraps a govmomi client with retry logic and scoped finder state.
type Client struct {
	// EndpointURL is the vCenter SDK endpoint, e.g. https://vc01.example.com/sdk
	EndpointURL string
	// Username/Password override any credentials embedded in EndpointURL.
	Username string
	Password string
	// Insecure skips TLS certificate verification (lab environments).
	Insecure bool
	// Datacenter is the inventory datacenter all folder paths resolve under.
	Datacenter string
	// RetryConfig defines the behavior for transient error handling.
	RetryConfig cloud.RetryConfig

	vim    *govmomi.Client
	finder *find.Finder
}

// executeWithRetry runs an operation using the client's retry configuration.
func (c *Client) executeWithRetry(ctx context.Context, opName string, operation func(ctx context.Context) error) error {
	return ExecuteAction(ctx, c.RetryConfig, opName, operation)
}

// GetCloudProviderName returns the identifier for this provider.
func (c *Client) GetCloudProviderName() string {
	return "vsphere"
}

// NewClient authenticates against vCenter and scopes the inventory finder to
// the configured datacenter. The session it establishes is the single shared
// connection for the whole run; callers must pair it with Logout.
func (c *Client) NewClient(ctx context.Context) error {
	slog.Debug("Initializing vCenter client", "endpoint", c.EndpointURL, "datacenter", c.Datacenter)

	u, err := soap.ParseURL(c.EndpointURL)
	if err != nil {
		return fmt.Errorf("invalid vCenter URL '%s': %w", c.EndpointURL, err)
	}
	if c.Username != "" {
		u.User = url.UserPassword(c.Username, c.Password)
	}

	var vim *govmomi.Client

	// loginOperation encapsulates session establishment so the retry helper
	// can re-run it on transient network failures.
	loginOperation := func(innerCtx context.Context) error {
		client, err := govmomi.NewClient(innerCtx, u, c.Insecure)
		if err != nil {
			return err
		}
		vim = client
		return nil
	}

	// 1. Establish Connection & Authentication
	if err := c.executeWithRetry(ctx, "vCenter Authentication", loginOperation); err != nil {
		return fmt.Errorf("authentication failed for endpoint '%s': %w", u.Host, err)
	}
	c.vim = vim

	// 2. Resolve the datacenter and pin the finder to it, so folder and VM
	// paths below are always relative to the right inventory root.
	finder := find.NewFinder(vim.Client, true)

	dc, err := finder.Datacenter(ctx, c.Datacenter)
	if err != nil {
		_ = c.Logout(ctx)
		return fmt.Errorf("failed to resolve datacenter '%s': %w", c.Datacenter, err)
	}
	finder.SetDatacenter(dc)
	c.finder = finder

	return nil
}

// Logout terminates the vCenter session. Safe to call when login never
// completed.
func (c *Client) Logout(ctx context.Context) error {
	if c.vim == nil {
		return nil
	}
	err := c.vim.Logout(ctx)
	c.vim = nil
	c.finder = nil
	return err
}

// ResolveFolderVMs resolves an inventory folder path to the virtual machines
// it contains. The path is interpreted relative to the datacenter's vmFolder,
// e.g. "production/web" or "*" for every VM in the datacenter.
func (c *Client) ResolveFolderVMs(ctx context.Context, folderPath string) ([]*object.VirtualMachine, error) {
	var vms []*object.VirtualMachine

	listOperation := func(innerCtx context.Context) error {
		found, err := c.finder.VirtualMachineList(innerCtx, folderPath)
		if err != nil {
			// An empty folder is a valid scope, not an error.
			var notFound *find.NotFoundError
			if errors.As(err, &notFound) {
				vms = nil
				return nil
			}
			return err
		}
		vms = found
		return nil
	}

	if err := c.executeWithRetry(ctx, "ResolveFolderVMs", listOperation); err != nil {
		return nil, fmt.Errorf("listing virtual machines under '%s': %w", folderPath, err)
	}

	return vms, nil
}
