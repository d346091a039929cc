package vsphere

import (
	"context"
	"fmt"

	"github.com/vmware/govmomi/object"
	"github.com/vmware/govmomi/vim25/mo"
	"github.com/vmware/govmomi/vim25/types"
)

// VMCustomAttributes reads a virtual machine's custom attributes as a plain
// string map. vSphere stores custom values keyed by numeric field IDs; the
// field definitions live on the CustomFieldsManager, so both are fetched and
// joined here.
//
// Used for per-VM retention policy overrides stored as custom attributes.
func (c *Client) VMCustomAttributes(ctx context.Context, vm *object.VirtualMachine) (map[string]string, error) {
	attrs := make(map[string]string)

	readOperation := func(innerCtx context.Context) error {
		cfm, err := object.GetCustomFieldsManager(c.vim.Client)
		if err != nil {
			return err
		}

		fields, err := cfm.Field(innerCtx)
		if err != nil {
			return err
		}

		names := make(map[int32]string, len(fields))
		for _, def := range fields {
			names[def.Key] = def.Name
		}

		var moVM mo.VirtualMachine
		if err := vm.Properties(innerCtx, vm.Reference(), []string{"customValue"}, &moVM); err != nil {
			return err
		}

		for _, v := range moVM.CustomValue {
			sv, ok := v.(*types.CustomFieldStringValue)
			if !ok {
				continue
			}
			name, ok := names[sv.Key]
			if !ok {
				continue
			}
			attrs[name] = sv.Value
		}
		return nil
	}

	if err := c.executeWithRetry(ctx, "VMCustomAttributes", readOperation); err != nil {
		return nil, fmt.Errorf("reading custom attributes of '%s': %w", vm.Name(), err)
	}

	return attrs, nil
}
