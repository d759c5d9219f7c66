package schema

import (
	"sort"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

// Normalize returns a copy of s with dense step orders (steps sorted by
// order), every component attached to a known step (orphans move to the
// first step) and dense per-step component orders. Duplicate step ids keep
// their first occurrence and components are emitted grouped by step in step
// order. Empty slices inside components become nil. A schema without steps
// gains the default step. Normalize is idempotent and never mutates s.
func Normalize(s model.FormSchema) model.FormSchema {
	steps := append([]model.FormStep{}, s.Steps...)
	if len(steps) == 0 {
		steps = []model.FormStep{model.DefaultStep()}
	}
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].Order < steps[j].Order })

	known := make(map[string]struct{}, len(steps))
	unique := steps[:0]
	for _, step := range steps {
		if _, dup := known[step.ID]; dup {
			continue
		}
		known[step.ID] = struct{}{}
		step.Order = len(unique)
		unique = append(unique, step)
	}
	steps = unique
	fallback := steps[0].ID

	byStep := make(map[string][]model.Component, len(steps))
	for _, comp := range s.Components {
		clone := comp.Clone()
		clone.Props = clone.Props.Compact()
		if len(clone.Children) == 0 {
			clone.Children = nil
		}
		if _, ok := known[clone.StepID]; !ok {
			clone.StepID = fallback
		}
		byStep[clone.StepID] = append(byStep[clone.StepID], clone)
	}

	components := make([]model.Component, 0, len(s.Components))
	for _, step := range steps {
		group := byStep[step.ID]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Order < group[j].Order })
		for idx := range group {
			group[idx].Order = idx
			components = append(components, group[idx])
		}
	}

	return model.FormSchema{Steps: steps, Components: components}
}

// IsNormalized reports whether Normalize(s) would leave step and component
// orders and step assignments unchanged.
func IsNormalized(s model.FormSchema) bool {
	if len(s.Steps) == 0 {
		return false
	}
	known := make(map[string]struct{}, len(s.Steps))
	for idx, step := range s.Steps {
		if step.Order != idx {
			return false
		}
		known[step.ID] = struct{}{}
	}
	counts := make(map[string]int, len(s.Steps))
	for _, comp := range s.Components {
		if _, ok := known[comp.StepID]; !ok {
			return false
		}
		if comp.Order != counts[comp.StepID] {
			return false
		}
		counts[comp.StepID]++
	}
	return true
}
