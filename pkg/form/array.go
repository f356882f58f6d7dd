package form

import (
	"fmt"

	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// ArrayField is the mutation handle for a list-valued field. Every operation
// derives the new list immutably, writes it through the store with the dirty
// mark set, and revalidates the field with the new list as candidate. Item
// count bounds are enforced only by validation, after the mutation.
type ArrayField struct {
	form *Form
	id   string
}

// ArrayField returns the operation handle for a chip or array field.
func (f *Form) ArrayField(id string) (ArrayField, error) {
	def, ok := f.fields[id]
	if !ok {
		return ArrayField{}, fmt.Errorf("form: unknown field %q", id)
	}
	if !def.IsList() {
		return ArrayField{}, fmt.Errorf("form: field %q is not list valued", id)
	}
	return ArrayField{form: f, id: id}, nil
}

// ID returns the underlying field identifier.
func (a ArrayField) ID() string { return a.id }

// Items returns a copy of the current list.
func (a ArrayField) Items() []any {
	a.form.mu.Lock()
	defer a.form.mu.Unlock()
	return validation.AsList(a.form.values[a.id])
}

// Len returns the current number of items, including blank ones.
func (a ArrayField) Len() int {
	a.form.mu.Lock()
	defer a.form.mu.Unlock()
	return len(validation.AsList(a.form.values[a.id]))
}

// Append adds value at the end of the list.
func (a ArrayField) Append(value any) error {
	return a.mutate(func(list []any) ([]any, error) {
		return append(list, value), nil
	})
}

// Prepend adds value at the front of the list.
func (a ArrayField) Prepend(value any) error {
	return a.mutate(func(list []any) ([]any, error) {
		return append([]any{value}, list...), nil
	})
}

// Insert places value at index, shifting later items right.
func (a ArrayField) Insert(index int, value any) error {
	return a.mutate(func(list []any) ([]any, error) {
		if index < 0 || index > len(list) {
			return nil, fmt.Errorf("form: insert index %d out of range for %q (len %d)", index, a.id, len(list))
		}
		out := make([]any, 0, len(list)+1)
		out = append(out, list[:index]...)
		out = append(out, value)
		out = append(out, list[index:]...)
		return out, nil
	})
}

// Remove drops the item at index.
func (a ArrayField) Remove(index int) error {
	return a.mutate(func(list []any) ([]any, error) {
		if index < 0 || index >= len(list) {
			return nil, fmt.Errorf("form: remove index %d out of range for %q (len %d)", index, a.id, len(list))
		}
		out := make([]any, 0, len(list)-1)
		out = append(out, list[:index]...)
		out = append(out, list[index+1:]...)
		return out, nil
	})
}

// Swap exchanges the items at indices i and j.
func (a ArrayField) Swap(i, j int) error {
	return a.mutate(func(list []any) ([]any, error) {
		if i < 0 || i >= len(list) || j < 0 || j >= len(list) {
			return nil, fmt.Errorf("form: swap indices %d,%d out of range for %q (len %d)", i, j, a.id, len(list))
		}
		out := append([]any(nil), list...)
		out[i], out[j] = out[j], out[i]
		return out, nil
	})
}

// Move removes the item at from and reinserts it at to, where to indexes the
// already shortened list (standard splice semantics): moving 0 to 2 on
// [a b c d] yields [b c a d].
func (a ArrayField) Move(from, to int) error {
	return a.mutate(func(list []any) ([]any, error) {
		if from < 0 || from >= len(list) {
			return nil, fmt.Errorf("form: move source %d out of range for %q (len %d)", from, a.id, len(list))
		}
		item := list[from]
		rest := make([]any, 0, len(list)-1)
		rest = append(rest, list[:from]...)
		rest = append(rest, list[from+1:]...)
		if to < 0 || to > len(rest) {
			return nil, fmt.Errorf("form: move target %d out of range for %q (len %d)", to, a.id, len(rest))
		}
		out := make([]any, 0, len(list))
		out = append(out, rest[:to]...)
		out = append(out, item)
		out = append(out, rest[to:]...)
		return out, nil
	})
}

// ItemDefinition synthesises the transient definition for the item at index
// from the array field's template.
func (a ArrayField) ItemDefinition(index int) (model.FieldDefinition, error) {
	def := a.form.fields[a.id]
	return def.ItemDefinition(index)
}

// mutate holds the lock across the whole read-modify-write so concurrent
// mutations serialize instead of deriving from the same base list.
func (a ArrayField) mutate(op func(list []any) ([]any, error)) error {
	f := a.form
	f.mu.Lock()
	current := validation.AsList(f.values[a.id])
	next, err := op(current)
	if err != nil {
		f.mu.Unlock()
		return err
	}
	changed, err := f.setValueLocked(a.id, next, setConfig{dirty: true, validate: true, mode: f.opts.mode})
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if f.opts.notifyOnlyOnChange && !changed {
		return nil
	}
	f.emit()
	return nil
}
