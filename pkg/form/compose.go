package form

import "go.uber.org/zap"

// ComposeWith shallow-merges another instance's values, errors, dirty and
// touched maps into this one, last-writer-wins on conflicting keys. Merged
// identifiers need not be registered here: composing is a raw state merge,
// typically across form halves that submit together. The other form is read
// once and left untouched.
func (f *Form) ComposeWith(other *Form) {
	if other == nil || other == f {
		return
	}

	other.mu.Lock()
	values := cloneValues(other.values)
	otherState := other.state.clone()
	other.mu.Unlock()

	f.mu.Lock()
	for id, value := range values {
		f.values[id] = value
	}
	for id, err := range otherState.Errors {
		f.state.Errors[id] = err
	}
	for id := range otherState.DirtyFields {
		f.state.DirtyFields[id] = true
	}
	for id := range otherState.TouchedFields {
		f.state.TouchedFields[id] = true
	}
	f.state.reconcile(f.loading)
	f.mu.Unlock()
	f.emit()

	f.log.Debug("composed form state",
		zap.String("form", f.id),
		zap.String("source", other.id),
		zap.Int("fields", len(values)))
}
