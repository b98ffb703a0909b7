package descriptor

// Merge deep-merges a rules-update document into the base descriptor and
// returns a new document; the inputs are never mutated. Status-template keys
// present in the update overwrite same-named keys on the target while
// untouched keys survive. Validation lists are appended in encountered order,
// never replaced or deduplicated. Update entries whose id matches nothing in
// the base are ignored. Merge is total: an empty update yields a document
// deep-equal to the input.
func Merge(base GlobalFormDescriptor, update RulesObject) GlobalFormDescriptor {
	out := Clone(base)
	if len(update.Blocks) == 0 && len(update.Fields) == 0 {
		return out
	}

	blockUpdates := make(map[string]BlockUpdate, len(update.Blocks))
	for _, bu := range update.Blocks {
		blockUpdates[bu.ID] = bu
	}
	fieldUpdates := make(map[string]FieldUpdate, len(update.Fields))
	for _, fu := range update.Fields {
		fieldUpdates[fu.ID] = fu
	}

	for bi := range out.Blocks {
		block := &out.Blocks[bi]
		if bu, ok := blockUpdates[block.ID]; ok {
			block.Status = mergeStatus(block.Status, bu.Status)
		}
		for fi := range block.Fields {
			field := &block.Fields[fi]
			fu, ok := fieldUpdates[field.ID]
			if !ok {
				continue
			}
			field.Status = mergeStatus(field.Status, fu.Status)
			for _, rule := range fu.Validation {
				rule.Message = sanitizeRuleMessage(rule.Message)
				field.Validation = append(field.Validation, rule)
			}
		}
	}
	return out
}

// mergeStatus overlays update keys onto the existing templates. Only
// non-empty update keys overwrite; absent keys keep the current template.
func mergeStatus(current, update *StatusTemplates) *StatusTemplates {
	if update == nil {
		return current
	}
	merged := StatusTemplates{}
	if current != nil {
		merged = *current
	}
	if update.Hidden != "" {
		merged.Hidden = update.Hidden
	}
	if update.Disabled != "" {
		merged.Disabled = update.Disabled
	}
	if update.Readonly != "" {
		merged.Readonly = update.Readonly
	}
	return &merged
}
