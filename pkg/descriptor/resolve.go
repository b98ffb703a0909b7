package descriptor

import (
	"fmt"
	"sort"
	"strings"
)

// ResolveError reports a failed repeatable-block reference resolution. Path
// holds the reference chain walked so far, ending at the offending id.
type ResolveError struct {
	BlockID string
	Path    []string
	Reason  string
}

func (e *ResolveError) Error() string {
	if len(e.Path) > 1 {
		return fmt.Sprintf("descriptor: resolve block %q: %s (path %s)", e.BlockID, e.Reason, strings.Join(e.Path, " -> "))
	}
	return fmt.Sprintf("descriptor: resolve block %q: %s", e.BlockID, e.Reason)
}

// Resolve expands every repeatable block carrying a repeatableBlockRef into a
// concrete field set cloned from the referenced block, with field ids
// rewritten to "<groupId>.<originalId>" and repeatableGroupId stamped. The
// group id is the block id with a trailing "-block" suffix stripped.
// Resolution walks reference chains recursively; a non-repeatable ref-bearing
// block that is itself referenced acts as an alias and is expanded in place
// without a prefix. Resolve fails on unknown ids, on references to repeatable
// blocks, on ref-bearing non-repeatable blocks nothing points at, and on
// cycles (naming the full path). It is idempotent: the returned document has
// no repeatableBlockRef left.
func Resolve(d GlobalFormDescriptor) (GlobalFormDescriptor, error) {
	out := Clone(d)

	index := make(map[string]*BlockDescriptor, len(out.Blocks))
	referenced := make(map[string]bool, len(out.Blocks))
	for i := range out.Blocks {
		index[out.Blocks[i].ID] = &out.Blocks[i]
		if ref := out.Blocks[i].RepeatableBlockRef; ref != "" {
			referenced[ref] = true
		}
	}

	for i := range out.Blocks {
		block := &out.Blocks[i]
		if block.RepeatableBlockRef == "" {
			continue
		}
		if !block.Repeatable && !referenced[block.ID] {
			return GlobalFormDescriptor{}, &ResolveError{
				BlockID: block.ID,
				Path:    []string{block.ID},
				Reason:  "has repeatableBlockRef but is not repeatable",
			}
		}

		fields, err := referencedFields(block, index, []string{block.ID})
		if err != nil {
			return GlobalFormDescriptor{}, err
		}

		cloned := make([]FieldDescriptor, 0, len(fields))
		if block.Repeatable {
			groupID := GroupID(block.ID)
			for _, field := range fields {
				copied := cloneField(field)
				copied.ID = groupID + "." + field.ID
				copied.RepeatableGroupID = groupID
				cloned = append(cloned, copied)
			}
		} else {
			for _, field := range fields {
				cloned = append(cloned, cloneField(field))
			}
		}
		block.Fields = cloned
		block.RepeatableBlockRef = ""
	}
	return out, nil
}

// referencedFields walks the reference chain from block to the first concrete
// field set. Fields are returned unprefixed; the caller applies the group id
// exactly once.
func referencedFields(block *BlockDescriptor, index map[string]*BlockDescriptor, path []string) ([]FieldDescriptor, error) {
	ref := block.RepeatableBlockRef

	for _, visited := range path {
		if visited == ref {
			cycle := append(append([]string{}, path...), ref)
			return nil, &ResolveError{
				BlockID: path[0],
				Path:    cycle,
				Reason:  fmt.Sprintf("reference cycle %s", strings.Join(cycle, " -> ")),
			}
		}
	}

	target, ok := index[ref]
	if !ok {
		return nil, &ResolveError{
			BlockID: path[0],
			Path:    append(append([]string{}, path...), ref),
			Reason:  fmt.Sprintf("referenced block %q not found (known blocks: %s)", ref, strings.Join(knownIDs(index), ", ")),
		}
	}
	if target.Repeatable {
		return nil, &ResolveError{
			BlockID: path[0],
			Path:    append(append([]string{}, path...), ref),
			Reason:  fmt.Sprintf("referenced block %q is itself repeatable", ref),
		}
	}
	if target.RepeatableBlockRef != "" {
		return referencedFields(target, index, append(path, ref))
	}
	return target.Fields, nil
}

// GroupID derives the repeatable group id from a block id: a trailing
// "-block" suffix is stripped, otherwise the raw id is used.
func GroupID(blockID string) string {
	if trimmed := strings.TrimSuffix(blockID, "-block"); trimmed != "" {
		return trimmed
	}
	return blockID
}

func knownIDs(index map[string]*BlockDescriptor) []string {
	ids := make([]string, 0, len(index))
	for id := range index {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
