package descriptor

// Clone returns a deep copy of the descriptor. Validation rules keep their
// Check capability by reference; everything else is copied.
func Clone(d GlobalFormDescriptor) GlobalFormDescriptor {
	out := GlobalFormDescriptor{}
	if len(d.Blocks) > 0 {
		out.Blocks = make([]BlockDescriptor, 0, len(d.Blocks))
		for _, block := range d.Blocks {
			out.Blocks = append(out.Blocks, cloneBlock(block))
		}
	}
	if d.Submission != nil {
		submission := *d.Submission
		submission.Auth = cloneAuth(d.Submission.Auth)
		out.Submission = &submission
	}
	return out
}

func cloneBlock(b BlockDescriptor) BlockDescriptor {
	out := b
	out.Status = cloneStatus(b.Status)
	if len(b.Fields) > 0 {
		out.Fields = make([]FieldDescriptor, 0, len(b.Fields))
		for _, field := range b.Fields {
			out.Fields = append(out.Fields, cloneField(field))
		}
	}
	if b.PopinLoad != nil {
		load := *b.PopinLoad
		load.Auth = cloneAuth(b.PopinLoad.Auth)
		out.PopinLoad = &load
	}
	if b.PopinSubmit != nil {
		submit := *b.PopinSubmit
		submit.Auth = cloneAuth(b.PopinSubmit.Auth)
		out.PopinSubmit = &submit
	}
	return out
}

func cloneField(f FieldDescriptor) FieldDescriptor {
	out := f
	out.Status = cloneStatus(f.Status)
	if len(f.Items) > 0 {
		out.Items = append([]Item{}, f.Items...)
	}
	if f.DataSource != nil {
		ds := *f.DataSource
		ds.Auth = cloneAuth(f.DataSource.Auth)
		out.DataSource = &ds
	}
	if len(f.Validation) > 0 {
		out.Validation = append([]ValidationRule{}, f.Validation...)
	}
	if f.Button != nil {
		button := *f.Button
		button.Auth = cloneAuth(f.Button.Auth)
		out.Button = &button
	}
	return out
}

func cloneStatus(s *StatusTemplates) *StatusTemplates {
	if s == nil {
		return nil
	}
	copied := *s
	return &copied
}

func cloneAuth(a *AuthConfig) *AuthConfig {
	if a == nil {
		return nil
	}
	copied := *a
	return &copied
}

// CloneContext copies a case context one level deep; values are scalars or
// small arrays, so element sharing is acceptable for diffing purposes.
func CloneContext(ctx CaseContext) CaseContext {
	if ctx == nil {
		return CaseContext{}
	}
	out := make(CaseContext, len(ctx))
	for key, value := range ctx {
		out[key] = value
	}
	return out
}
