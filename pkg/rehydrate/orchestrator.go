package rehydrate

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/goliatone/go-formflow/pkg/descriptor"
)

// DescriptorFunc receives the merged descriptor after a re-hydration cycle so
// the host can re-run visibility and validation evaluation.
type DescriptorFunc func(d descriptor.GlobalFormDescriptor)

// LoadingFunc toggles the host's loading indicator. It is called exactly once
// with true at dispatch and exactly once with false at completion, success or
// failure.
type LoadingFunc func(loading bool)

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithClient injects the rules client.
func WithClient(client RulesClient) Option {
	return func(o *Orchestrator) {
		if client != nil {
			o.client = client
		}
	}
}

// WithSeed seeds the initial case context, typically from case prefill data.
func WithSeed(seed descriptor.CaseContext) Option {
	return func(o *Orchestrator) {
		o.caseContext = descriptor.CloneContext(seed)
	}
}

// WithOnDescriptor registers the merged-descriptor callback.
func WithOnDescriptor(fn DescriptorFunc) Option {
	return func(o *Orchestrator) {
		o.onDescriptor = fn
	}
}

// WithOnLoading registers the loading indicator callback.
func WithOnLoading(fn LoadingFunc) Option {
	return func(o *Orchestrator) {
		o.onLoading = fn
	}
}

// WithDebounceOptions forwards options to the internal debouncer.
func WithDebounceOptions(options ...DebounceOption) Option {
	return func(o *Orchestrator) {
		o.debounceOptions = append(o.debounceOptions, options...)
	}
}

// WithLogger injects the orchestrator's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator watches discriminant-field edits, maintains the case context,
// and drives debounced re-hydration: context extraction, deduped scheduling,
// the rules call bracketed by the loading indicator, stale-response
// rejection, and the merge of the returned rules document into the working
// descriptor.
type Orchestrator struct {
	mu sync.Mutex

	descriptor    descriptor.GlobalFormDescriptor
	caseContext   descriptor.CaseContext
	discriminants []string

	client          RulesClient
	debouncer       *Debouncer
	debounceOptions []DebounceOption
	onDescriptor    DescriptorFunc
	onLoading       LoadingFunc
	logger          *slog.Logger
}

// New constructs an orchestrator around the working descriptor. Discriminant
// fields are read from the descriptor once; a merged descriptor never changes
// the discriminant set.
func New(d descriptor.GlobalFormDescriptor, options ...Option) *Orchestrator {
	o := &Orchestrator{
		descriptor:    descriptor.Clone(d),
		caseContext:   descriptor.CaseContext{},
		discriminants: descriptor.DiscriminantFields(d),
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.debouncer = NewDebouncer(o.dispatch, o.debounceOptions...)
	return o
}

// Descriptor returns the current working descriptor.
func (o *Orchestrator) Descriptor() descriptor.GlobalFormDescriptor {
	o.mu.Lock()
	defer o.mu.Unlock()
	return descriptor.Clone(o.descriptor)
}

// CaseContext returns a copy of the current case context.
func (o *Orchestrator) CaseContext() descriptor.CaseContext {
	o.mu.Lock()
	defer o.mu.Unlock()
	return descriptor.CloneContext(o.caseContext)
}

// FieldsChanged feeds the current form values through context extraction.
// When a discriminant value actually changed, the new context is proposed to
// the debouncer; otherwise nothing happens.
func (o *Orchestrator) FieldsChanged(formValues map[string]any) {
	o.mu.Lock()
	next := UpdateContext(o.caseContext, formValues, o.discriminants)
	if !Changed(o.caseContext, next) {
		o.mu.Unlock()
		return
	}
	o.caseContext = next
	o.mu.Unlock()

	o.debouncer.Propose(next)
}

// MergeAndReevaluate merges the rules update into the descriptor and hands
// the merged document back for fresh visibility/validation evaluation. It
// performs no evaluation itself.
func (o *Orchestrator) MergeAndReevaluate(update descriptor.RulesObject) descriptor.GlobalFormDescriptor {
	o.mu.Lock()
	merged := descriptor.Merge(o.descriptor, update)
	o.descriptor = merged
	fn := o.onDescriptor
	o.mu.Unlock()

	if fn != nil {
		fn(descriptor.Clone(merged))
	}
	return descriptor.Clone(merged)
}

// dispatch is the debouncer's fire callback: it brackets the rules call with
// the loading indicator and merges the response only while its token is still
// the newest dispatch.
func (o *Orchestrator) dispatch(cc descriptor.CaseContext, token string) {
	if o.client == nil {
		o.debouncer.Settle(token)
		return
	}

	o.setLoading(true)
	rules, err := o.client.Rehydrate(context.Background(), cc)
	o.setLoading(false)

	defer o.debouncer.Settle(token)

	if err != nil {
		o.logger.Warn("re-hydration failed", "error", err)
		return
	}
	if !o.debouncer.IsCurrent(token) {
		o.logger.Debug("discarding stale re-hydration response")
		return
	}

	o.MergeAndReevaluate(rules)
}

func (o *Orchestrator) setLoading(loading bool) {
	if o.onLoading != nil {
		o.onLoading(loading)
	}
}
