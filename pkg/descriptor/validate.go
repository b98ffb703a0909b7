package descriptor

import (
	"errors"
	"fmt"
)

var (
	errFieldIDMissing = errors.New("descriptor: field id is required")
	errBlockIDMissing = errors.New("descriptor: block id is required")
)

// Validate checks the structural invariants a well-formed descriptor must
// hold: field ids unique within their block, items and dataSource mutually
// exclusive, button configuration only on button fields, and
// repeatableBlockRef only on repeatable blocks or referenced aliases.
func Validate(d GlobalFormDescriptor) error {
	referenced := make(map[string]bool, len(d.Blocks))
	for _, block := range d.Blocks {
		if block.RepeatableBlockRef != "" {
			referenced[block.RepeatableBlockRef] = true
		}
	}

	seenBlocks := make(map[string]struct{}, len(d.Blocks))
	for _, block := range d.Blocks {
		if block.ID == "" {
			return errBlockIDMissing
		}
		if _, dup := seenBlocks[block.ID]; dup {
			return fmt.Errorf("descriptor: duplicate block id %q", block.ID)
		}
		seenBlocks[block.ID] = struct{}{}

		// A ref-bearing non-repeatable block is only legal as an alias,
		// when another block references it in turn.
		if block.RepeatableBlockRef != "" && !block.Repeatable && !referenced[block.ID] {
			return fmt.Errorf("descriptor: block %q has repeatableBlockRef but is not repeatable", block.ID)
		}
		if block.MaxInstances > 0 && block.MinInstances > block.MaxInstances {
			return fmt.Errorf("descriptor: block %q minInstances %d exceeds maxInstances %d", block.ID, block.MinInstances, block.MaxInstances)
		}

		seenFields := make(map[string]struct{}, len(block.Fields))
		for _, field := range block.Fields {
			if err := validateField(block.ID, field); err != nil {
				return err
			}
			if _, dup := seenFields[field.ID]; dup {
				return fmt.Errorf("descriptor: block %q has duplicate field id %q", block.ID, field.ID)
			}
			seenFields[field.ID] = struct{}{}
		}
	}
	return nil
}

func validateField(blockID string, field FieldDescriptor) error {
	if field.ID == "" {
		return fmt.Errorf("%w (block %q)", errFieldIDMissing, blockID)
	}
	if len(field.Items) > 0 && field.DataSource != nil {
		return fmt.Errorf("descriptor: field %q declares both items and dataSource", field.ID)
	}
	if field.Button != nil && field.Type != FieldTypeButton {
		return fmt.Errorf("descriptor: field %q carries button config but has type %q", field.ID, field.Type)
	}
	return nil
}

// DiscriminantFields returns the ids of every field flagged as discriminant,
// in document order.
func DiscriminantFields(d GlobalFormDescriptor) []string {
	var ids []string
	for _, block := range d.Blocks {
		for _, field := range block.Fields {
			if field.IsDiscriminant {
				ids = append(ids, field.ID)
			}
		}
	}
	return ids
}

// FindField locates a field by id across every block. The second return is
// false when no field carries the id.
func FindField(d GlobalFormDescriptor, id string) (FieldDescriptor, bool) {
	for _, block := range d.Blocks {
		for _, field := range block.Fields {
			if field.ID == id {
				return field, true
			}
		}
	}
	return FieldDescriptor{}, false
}
