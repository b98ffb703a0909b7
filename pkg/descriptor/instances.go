package descriptor

import (
	"fmt"

	"github.com/google/uuid"
)

// Instance identifies one occurrence of a repeatable block's field group.
type Instance struct {
	ID      string   `json:"id"`
	GroupID string   `json:"groupId"`
	Fields  []string `json:"fields"`
}

// NewInstance mints a new instance of a repeatable block inside a resolved
// descriptor, honoring maxInstances. Field ids inside the instance are
// namespaced as "<groupId>[<instanceId>].<fieldId>" so values of different
// instances never collide.
func NewInstance(d GlobalFormDescriptor, blockID string, existing int) (Instance, error) {
	block, ok := findBlock(d, blockID)
	if !ok {
		return Instance{}, fmt.Errorf("descriptor: block %q not found", blockID)
	}
	if !block.Repeatable {
		return Instance{}, fmt.Errorf("descriptor: block %q is not repeatable", blockID)
	}
	if block.RepeatableBlockRef != "" {
		return Instance{}, fmt.Errorf("descriptor: block %q is unresolved, call Resolve first", blockID)
	}
	if block.MaxInstances > 0 && existing >= block.MaxInstances {
		return Instance{}, fmt.Errorf("descriptor: block %q already has %d of %d instances", blockID, existing, block.MaxInstances)
	}

	groupID := GroupID(blockID)
	instanceID := uuid.NewString()
	instance := Instance{ID: instanceID, GroupID: groupID}
	for _, field := range block.Fields {
		instance.Fields = append(instance.Fields, fmt.Sprintf("%s[%s].%s", groupID, instanceID, field.ID))
	}
	return instance, nil
}

// RemoveInstance checks whether an instance may be removed given the block's
// minInstances floor.
func RemoveInstance(d GlobalFormDescriptor, blockID string, existing int) error {
	block, ok := findBlock(d, blockID)
	if !ok {
		return fmt.Errorf("descriptor: block %q not found", blockID)
	}
	if existing <= block.MinInstances {
		return fmt.Errorf("descriptor: block %q requires at least %d instances", blockID, block.MinInstances)
	}
	return nil
}

func findBlock(d GlobalFormDescriptor, id string) (BlockDescriptor, bool) {
	for _, block := range d.Blocks {
		if block.ID == id {
			return block, true
		}
	}
	return BlockDescriptor{}, false
}
