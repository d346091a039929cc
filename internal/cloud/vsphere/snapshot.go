package vsphere

import (
	"context"
	"fmt"

	"github.com/vmware/govmomi/object"
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/types"
)

// ListVMSnapshots enumerates every snapshot of a single virtual machine,
// walking the full snapshot tree (snapshots can be chained and branched; the
// retention engine treats them as a flat set).
//
// Sizes are resolved from the VM's layoutEx: each snapshot layout points at a
// data file key (the delta disk) and optionally a memory file key. A VM with
// no snapshots returns an empty slice, not an error.
func (c *Client) ListVMSnapshots(ctx context.Context, vm *object.VirtualMachine) ([]SnapshotInfo, error) {
	var snaps []SnapshotInfo

	listOperation := func(innerCtx context.Context) error {
		var moVM mo.VirtualMachine
		err := vm.Properties(innerCtx, vm.Reference(), []string{"name", "snapshot", "layoutEx"}, &moVM)
		if err != nil {
			return err
		}

		snaps = nil
		if moVM.Snapshot == nil {
			return nil
		}

		sizes := snapshotSizesMB(moVM.LayoutEx)

		var walk func(tree []types.VirtualMachineSnapshotTree)
		walk = func(tree []types.VirtualMachineSnapshotTree) {
			for _, node := range tree {
				snaps = append(snaps, SnapshotInfo{
					Ref:         node.Snapshot,
					VMRef:       vm.Reference(),
					VMName:      moVM.Name,
					Name:        node.Name,
					Description: node.Description,
					CreateTime:  node.CreateTime,
					SizeMB:      sizes[node.Snapshot.Value],
				})
				walk(node.ChildSnapshotList)
			}
		}
		walk(moVM.Snapshot.RootSnapshotList)
		return nil
	}

	if err := c.executeWithRetry(ctx, "ListVMSnapshots", listOperation); err != nil {
		return nil, fmt.Errorf("enumerating snapshots of '%s': %w", vm.Name(), err)
	}

	return snaps, nil
}

// snapshotSizesMB maps snapshot moref values to their on-disk size in MB,
// summing the delta data file and the memory file when one exists.
func snapshotSizesMB(layout *types.VirtualMachineFileLayoutEx) map[string]int64 {
	sizes := make(map[string]int64)
	if layout == nil {
		return sizes
	}

	fileSizes := make(map[int32]int64, len(layout.File))
	for _, f := range layout.File {
		fileSizes[f.Key] = f.Size
	}

	for _, snapLayout := range layout.Snapshot {
		var bytes int64
		bytes += fileSizes[snapLayout.DataKey]
		if snapLayout.MemoryKey >= 0 {
			bytes += fileSizes[snapLayout.MemoryKey]
		}
		sizes[snapLayout.Key.Value] = bytes / (1024 * 1024)
	}
	return sizes
}

// DeleteSnapshot removes one snapshot from a virtual machine and waits for
// the backing task to complete.
//
// Behavior:
//   - Children are preserved: removeChildren is false, so deleting a mid-chain
//     snapshot consolidates it into its children rather than cascading.
//   - Synchronous: the vSphere RemoveSnapshot call is task-based; this method
//     blocks until the task finishes so callers get a real success/failure
//     verdict, not just "request accepted". The task completing successfully
//     still does not guarantee immediate visibility in a follow-up property
//     read, which is why the engine reconciles afterwards.
func (c *Client) DeleteSnapshot(ctx context.Context, vm *object.VirtualMachine, snapshotID string) error {
	deleteOperation := func(innerCtx context.Context) error {
		consolidate := true
		task, err := vm.RemoveSnapshot(innerCtx, snapshotID, false, &consolidate)
		if err != nil {
			return err
		}
		return task.Wait(innerCtx)
	}

	if err := c.executeWithRetry(ctx, "DeleteVMSnapshot", deleteOperation); err != nil {
		return fmt.Errorf("deleting snapshot %s of '%s': %w", snapshotID, vm.Name(), err)
	}

	return nil
}
