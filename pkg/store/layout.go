package store

import "github.com/goliatone/go-formbuilder/pkg/model"

// layout is a normalized schema split into ordered steps and per-step
// ordered component groups.
type layout struct {
	steps  []model.FormStep
	groups map[string][]model.Component
}

// split expects a normalized schema.
func split(s model.FormSchema) layout {
	l := layout{
		steps:  append([]model.FormStep(nil), s.Steps...),
		groups: make(map[string][]model.Component, len(s.Steps)),
	}
	for _, comp := range s.Components {
		l.groups[comp.StepID] = append(l.groups[comp.StepID], comp)
	}
	return l
}

// join flattens the layout with dense step and component orders.
func (l layout) join() model.FormSchema {
	out := model.FormSchema{
		Steps:      make([]model.FormStep, len(l.steps)),
		Components: []model.Component{},
	}
	for idx, step := range l.steps {
		step.Order = idx
		out.Steps[idx] = step
		for order, comp := range l.groups[step.ID] {
			comp.StepID = step.ID
			comp.Order = order
			out.Components = append(out.Components, comp)
		}
	}
	return out
}

func (l layout) stepIndex(id string) int {
	for idx, step := range l.steps {
		if step.ID == id {
			return idx
		}
	}
	return -1
}

func (l *layout) removeStep(id string) {
	idx := l.stepIndex(id)
	if idx < 0 {
		return
	}
	l.steps = removeItem(l.steps, idx)
	delete(l.groups, id)
}

func componentIndex(group []model.Component, id string) int {
	for idx, comp := range group {
		if comp.ID == id {
			return idx
		}
	}
	return -1
}

// moveItem removes the element at from and reinserts it at to.
func moveItem[T any](items []T, from, to int) []T {
	if from < 0 || from >= len(items) || from == to {
		return items
	}
	item := items[from]
	items = removeItem(items, from)
	return insertItem(items, to, item)
}

func insertItem[T any](items []T, at int, item T) []T {
	out := make([]T, 0, len(items)+1)
	out = append(out, items[:at]...)
	out = append(out, item)
	return append(out, items[at:]...)
}

func removeItem[T any](items []T, at int) []T {
	if at < 0 || at >= len(items) {
		return items
	}
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:at]...)
	return append(out, items[at+1:]...)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
