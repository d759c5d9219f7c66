// Package formbuilder wires the field registry, the schema store and the
// persistence adapter into a single builder session.
package formbuilder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/persistence"
	"github.com/goliatone/go-formbuilder/pkg/registry"
	"github.com/goliatone/go-formbuilder/pkg/store"
)

// Selection aliases store.Selection for callers of the root package.
type Selection = store.Selection

// ComponentUpdate aliases store.ComponentUpdate.
type ComponentUpdate = store.ComponentUpdate

// StepUpdate aliases store.StepUpdate.
type StepUpdate = store.StepUpdate

// Option configures a Builder.
type Option func(*Builder)

// WithRegistry sets the field registry. Defaults to a registry holding the
// built-in field kinds.
func WithRegistry(reg *registry.Registry) Option {
	return func(b *Builder) {
		if reg != nil {
			b.registry = reg
		}
	}
}

// WithStore uses an existing store instead of creating one.
func WithStore(st *store.Store) Option {
	return func(b *Builder) {
		if st != nil {
			b.store = st
		}
	}
}

// WithStoreOptions forwards options to the store created by New.
func WithStoreOptions(options ...store.Option) Option {
	return func(b *Builder) {
		b.storeOptions = append(b.storeOptions, options...)
	}
}

// WithKV sets the persistence backend. Defaults to an in-memory store.
func WithKV(kv persistence.KV) Option {
	return func(b *Builder) {
		if kv != nil {
			b.kv = kv
		}
	}
}

// WithLogger sets the logger shared by the store and the adapter.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithIDGenerator overrides how component and step ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(b *Builder) {
		if fn != nil {
			b.newID = fn
		}
	}
}

// Builder is one editing session: a registry to draw field kinds from, the
// store holding the schema and its history, and the adapter persisting it.
type Builder struct {
	registry     *registry.Registry
	store        *store.Store
	storeOptions []store.Option
	kv           persistence.KV
	persistence  *persistence.Adapter
	logger       *slog.Logger
	newID        func() string
}

// New constructs a Builder.
func New(options ...Option) *Builder {
	b := &Builder{
		logger: slog.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(b)
	}
	if b.registry == nil {
		b.registry = registry.NewWithBuiltins()
	}
	if b.store == nil {
		opts := append([]store.Option{store.WithLogger(b.logger)}, b.storeOptions...)
		b.store = store.New(opts...)
	}
	if b.kv == nil {
		b.kv = persistence.NewMemoryKV()
	}
	b.persistence = persistence.NewAdapter(b.kv, persistence.WithLogger(b.logger))
	return b
}

// Registry returns the field registry.
func (b *Builder) Registry() *registry.Registry { return b.registry }

// Store returns the schema store.
func (b *Builder) Store() *store.Store { return b.store }

// Persistence returns the persistence adapter.
func (b *Builder) Persistence() *persistence.Adapter { return b.persistence }

// Schema returns a snapshot of the current schema.
func (b *Builder) Schema() model.FormSchema { return b.store.Present() }

// NewComponent builds a component of type t with the registry's default
// config and a fresh id. The field name gets a numeric suffix when the
// default name is already used in the current schema. An empty stepID leaves
// placement to the store.
func (b *Builder) NewComponent(t model.FieldType, stepID string) (model.Component, error) {
	def, ok := b.registry.Get(t)
	if !ok {
		return model.Component{}, fmt.Errorf("formbuilder: new component: %w: %q", registry.ErrUnknownType, t)
	}
	props := def.NewProps()
	base := props.Name
	if base == "" {
		base = string(t)
	}
	props.Name = uniqueName(b.store.Present(), base)
	return model.Component{
		ID:     b.newID(),
		Type:   t,
		Props:  props,
		StepID: stepID,
	}, nil
}

// Insert creates a component of type t and places it in stepID at index. A
// nil index appends.
func (b *Builder) Insert(t model.FieldType, stepID string, index *int) (model.Component, error) {
	comp, err := b.NewComponent(t, stepID)
	if err != nil {
		return model.Component{}, err
	}
	if !b.store.AddComponent(comp, index) {
		return model.Component{}, fmt.Errorf("formbuilder: insert %q: component was not added", t)
	}
	placed, _ := b.store.Present().Component(comp.ID)
	return placed, nil
}

// NewStep appends a step with a fresh id. A blank title becomes "Step N".
func (b *Builder) NewStep(title string) (model.FormStep, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = fmt.Sprintf("Step %d", len(b.store.Present().Steps)+1)
	}
	step := model.FormStep{ID: "step_" + b.newID(), Title: title}
	if !b.store.AddStep(step) {
		return model.FormStep{}, fmt.Errorf("formbuilder: add step %q: step was not added", step.ID)
	}
	placed, _ := b.store.Present().Step(step.ID)
	return placed, nil
}

// ConfigErrors runs every component's props through its definition's config
// validator and returns the failures keyed by component id. Components of
// unregistered types are reported as well.
func (b *Builder) ConfigErrors() map[string]error {
	out := map[string]error{}
	for _, comp := range b.store.Present().Components {
		if err := b.registry.ValidateConfig(comp.Type, comp.Props); err != nil {
			out[comp.ID] = err
		}
	}
	return out
}

// Save persists the current schema.
func (b *Builder) Save(ctx context.Context) error {
	return b.persistence.Save(ctx, b.store)
}

// Load restores the last saved schema, reporting whether one was found.
func (b *Builder) Load(ctx context.Context) (bool, error) {
	return b.persistence.Load(ctx, b.store)
}

func uniqueName(s model.FormSchema, base string) string {
	used := make(map[string]struct{}, len(s.Components))
	for _, comp := range s.Components {
		used[comp.Props.Name] = struct{}{}
	}
	if _, taken := used[base]; !taken {
		return base
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d", base, n)
		if _, taken := used[candidate]; !taken {
			return candidate
		}
	}
}
