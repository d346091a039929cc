package vsphere

import (
	"time"

	"github.com/vmware/govmomi/vim25/types"
)

// SnapshotInfo is the provider-level view of one point-in-time snapshot,
// flattened out of the vSphere snapshot tree. The moref value doubles as the
// stable snapshot identifier across enumerations.
type SnapshotInfo struct {
	// Ref is the managed object reference of the snapshot itself.
	Ref types.ManagedObjectReference
	// VMRef and VMName are a non-owning back-reference to the owning VM.
	VMRef  types.ManagedObjectReference
	VMName string

	Name        string
	Description string
	CreateTime  time.Time
	// SizeMB is the on-disk footprint of the snapshot delta (and memory file,
	// when present) as reported by the VM's layoutEx. Zero when vCenter has
	// not computed a layout yet.
	SizeMB int64
}

// ID returns the identifier used for snapshot lookups and deletion, e.g.
// "snapshot-4021".
func (s SnapshotInfo) ID() string {
	return s.Ref.Value
}
