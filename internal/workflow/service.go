package workflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/pmohandas/vsphere-snapjanitor/internal/cleanup"
	"github.com/pmohandas/vsphere-snapjanitor/internal/cloud/vsphere"
	"github.com/vmware/govmomi/object"
)

// folderSnapshotService adapts the vCenter client to the engine's
// SnapshotService contract for one resolved folder of VMs.
//
// The VM set is fixed at construction (scope resolution happens once per
// run); snapshot enumeration itself queries live state on every call, which
// is what makes the engine's post-batch reconciliation meaningful. Deletion
// needs the owning VM handle, so each enumeration refreshes the id → VM
// ownership map.
type folderSnapshotService struct {
	client *vsphere.Client
	vms    []*object.VirtualMachine

	mu     sync.Mutex
	owners map[string]*object.VirtualMachine
}

func newFolderSnapshotService(client *vsphere.Client, vms []*object.VirtualMachine) *folderSnapshotService {
	return &folderSnapshotService{
		client: client,
		vms:    vms,
		owners: make(map[string]*object.VirtualMachine),
	}
}

func (s *folderSnapshotService) ListSnapshots(ctx context.Context, _ cleanup.Scope) ([]cleanup.Snapshot, error) {
	var all []cleanup.Snapshot
	owners := make(map[string]*object.VirtualMachine)

	for _, vm := range s.vms {
		infos, err := s.client.ListVMSnapshots(ctx, vm)
		if err != nil {
			// Enumeration failures are batch-fatal for the scope; a partial
			// view would make reconciliation lie about what remains.
			return nil, err
		}
		for _, info := range infos {
			owners[info.ID()] = vm
			all = append(all, cleanup.Snapshot{
				ID:        info.ID(),
				VMID:      info.VMRef.Value,
				VMName:    info.VMName,
				Name:      info.Name,
				CreatedAt: info.CreateTime,
				SizeMB:    info.SizeMB,
			})
		}
	}

	s.mu.Lock()
	s.owners = owners
	s.mu.Unlock()

	return all, nil
}

func (s *folderSnapshotService) DeleteSnapshot(ctx context.Context, id string) error {
	s.mu.Lock()
	vm := s.owners[id]
	s.mu.Unlock()

	if vm == nil {
		return fmt.Errorf("snapshot %s has no known owning VM in this scope", id)
	}
	return s.client.DeleteSnapshot(ctx, vm, id)
}
