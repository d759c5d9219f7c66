package store

import (
	"strings"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

// StepUpdate is a partial step edit. Nil fields are left unchanged. Order
// moves the step to that position among the steps.
type StepUpdate struct {
	Title *string
	Order *int
}

// ComponentUpdate is a partial component edit. Nil fields are left
// unchanged. Props is deep-merged into the existing props object; a nil value
// removes that key. Changing StepID appends the component to the end of the
// destination step and ignores Order.
type ComponentUpdate struct {
	Type     *model.FieldType
	StepID   *string
	Order    *int
	Children *[]string
	Props    map[string]any
}

func (u ComponentUpdate) empty() bool {
	return u.Type == nil && u.StepID == nil && u.Order == nil && u.Children == nil && len(u.Props) == 0
}

// AddStep appends step after the existing steps. A blank or duplicate id is
// ignored.
func (s *Store) AddStep(step model.FormStep) bool {
	return s.mutate("add_step", func(draft *model.FormSchema) bool {
		if strings.TrimSpace(step.ID) == "" || draft.HasStep(step.ID) {
			return false
		}
		step.Order = len(draft.Steps)
		draft.Steps = append(draft.Steps, step)
		return true
	})
}

// RemoveStep deletes a step and moves its components to the end of the first
// remaining step. The last step cannot be removed.
func (s *Store) RemoveStep(id string) bool {
	return s.mutate("remove_step", func(draft *model.FormSchema) bool {
		if len(draft.Steps) <= 1 || !draft.HasStep(id) {
			return false
		}
		l := split(*draft)
		moved := l.groups[id]
		l.removeStep(id)
		target := l.steps[0].ID
		for _, comp := range moved {
			comp.StepID = target
			l.groups[target] = append(l.groups[target], comp)
		}
		*draft = l.join()
		return true
	})
}

// UpdateStep merges update into the step with the given id.
func (s *Store) UpdateStep(id string, update StepUpdate) bool {
	return s.mutate("update_step", func(draft *model.FormSchema) bool {
		if (update.Title == nil && update.Order == nil) || !draft.HasStep(id) {
			return false
		}
		l := split(*draft)
		from := l.stepIndex(id)
		if update.Title != nil {
			l.steps[from].Title = *update.Title
		}
		if update.Order != nil {
			l.steps = moveItem(l.steps, from, clamp(*update.Order, 0, len(l.steps)-1))
		}
		*draft = l.join()
		return true
	})
}

// AddComponent inserts comp into its step at index, or at the end of the step
// when index is nil. The target step is comp.StepID when it exists, else the
// selected step, else the first step. Later components in the step shift by
// one. A blank or duplicate id is ignored.
func (s *Store) AddComponent(comp model.Component, index *int) bool {
	return s.mutate("add_component", func(draft *model.FormSchema) bool {
		if strings.TrimSpace(comp.ID) == "" {
			return false
		}
		if _, exists := draft.Component(comp.ID); exists {
			return false
		}

		l := split(*draft)
		target := comp.StepID
		if !draft.HasStep(target) {
			target = s.selection.StepID
		}
		if !draft.HasStep(target) {
			target = l.steps[0].ID
		}

		placed := comp.Clone()
		placed.StepID = target
		group := l.groups[target]
		at := len(group)
		if index != nil {
			at = clamp(*index, 0, len(group))
		}
		l.groups[target] = insertItem(group, at, placed)
		*draft = l.join()
		return true
	})
}

// AddComponentAt is AddComponent with an explicit index.
func (s *Store) AddComponentAt(comp model.Component, index int) bool {
	return s.AddComponent(comp, &index)
}

// RemoveComponent deletes the component with the given id.
func (s *Store) RemoveComponent(id string) bool {
	return s.mutate("remove_component", func(draft *model.FormSchema) bool {
		comp, ok := draft.Component(id)
		if !ok {
			return false
		}
		l := split(*draft)
		group := l.groups[comp.StepID]
		l.groups[comp.StepID] = removeItem(group, componentIndex(group, id))
		*draft = l.join()
		return true
	})
}

// UpdateComponent merges update into the component with the given id. An
// update naming an unknown step is ignored as a whole.
func (s *Store) UpdateComponent(id string, update ComponentUpdate) bool {
	return s.mutate("update_component", func(draft *model.FormSchema) bool {
		current, ok := draft.Component(id)
		if !ok || update.empty() {
			return false
		}
		if update.StepID != nil && !draft.HasStep(*update.StepID) {
			return false
		}

		next := current.Clone()
		if update.Type != nil {
			next.Type = *update.Type
		}
		if update.Children != nil {
			next.Children = append([]string(nil), (*update.Children)...)
		}
		if update.Type != nil || len(update.Props) > 0 {
			props, err := mergeProps(next.Type, current.Props, update.Props)
			if err != nil {
				s.logger.Warn("store: props update rejected", "component", id, "error", err)
				return false
			}
			next.Props = props
		}

		l := split(*draft)
		group := l.groups[current.StepID]
		from := componentIndex(group, id)

		switch {
		case update.StepID != nil && *update.StepID != current.StepID:
			l.groups[current.StepID] = removeItem(group, from)
			next.StepID = *update.StepID
			l.groups[next.StepID] = append(l.groups[next.StepID], next)
		case update.Order != nil:
			group[from] = next
			l.groups[current.StepID] = moveItem(group, from, clamp(*update.Order, 0, len(group)-1))
		default:
			group[from] = next
		}
		*draft = l.join()
		return true
	})
}

// ReorderComponents moves activeID to overID's position within their shared
// step. Components in different steps are not reordered.
func (s *Store) ReorderComponents(activeID, overID string) bool {
	return s.mutate("reorder_components", func(draft *model.FormSchema) bool {
		if activeID == overID {
			return false
		}
		active, ok := draft.Component(activeID)
		if !ok {
			return false
		}
		over, ok := draft.Component(overID)
		if !ok || over.StepID != active.StepID {
			return false
		}
		l := split(*draft)
		group := l.groups[active.StepID]
		l.groups[active.StepID] = moveItem(group, componentIndex(group, activeID), componentIndex(group, overID))
		*draft = l.join()
		return true
	})
}

// SelectComponent focuses a component and its step. An empty id clears the
// component selection. Unknown ids are ignored.
func (s *Store) SelectComponent(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		if s.selection.ComponentID == "" {
			return false
		}
		s.selection.ComponentID = ""
		return true
	}
	comp, ok := s.present.Component(id)
	if !ok {
		s.logger.Debug("store: command ignored", "command", "select_component", "component", id)
		return false
	}
	s.selection = Selection{ComponentID: comp.ID, StepID: comp.StepID}
	return true
}

// SelectStep focuses a step. Unknown ids are ignored.
func (s *Store) SelectStep(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.present.HasStep(id) {
		s.logger.Debug("store: command ignored", "command", "select_step", "step", id)
		return false
	}
	s.selection.StepID = id
	return true
}

func mergeProps(t model.FieldType, current model.Props, patch map[string]any) (model.Props, error) {
	values, err := current.ToMap()
	if err != nil {
		return model.Props{}, err
	}
	deepMerge(values, patch)
	return model.PropsFromMap(t, values)
}

func deepMerge(dst, patch map[string]any) {
	for key, value := range patch {
		if value == nil {
			delete(dst, key)
			continue
		}
		nested, isMap := value.(map[string]any)
		existing, hasMap := dst[key].(map[string]any)
		if isMap && hasMap {
			deepMerge(existing, nested)
			continue
		}
		dst[key] = value
	}
}
