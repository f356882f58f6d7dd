package form

import (
	"fmt"

	"github.com/goliatone/go-formstate/pkg/validation"
)

// ResetOptions controls what ResetForm retains. The zero value restores the
// initial default snapshot and clears every mark.
type ResetOptions struct {
	KeepValues      bool
	KeepErrors      bool
	KeepDirty       bool
	KeepTouched     bool
	KeepIsSubmitted bool
	KeepSubmitCount bool
}

// ResetForm restores the store to its initial snapshot (unless KeepValues)
// and clears state marks per the retention flags. In-flight async validation
// results are invalidated.
func (f *Form) ResetForm(opts ResetOptions) {
	f.mu.Lock()
	if !opts.KeepValues {
		f.values = cloneValues(f.initial)
	}
	if !opts.KeepErrors {
		f.state.Errors = map[string]validation.FieldError{}
	}
	if !opts.KeepDirty {
		f.state.DirtyFields = map[string]bool{}
	}
	if !opts.KeepTouched {
		f.state.TouchedFields = map[string]bool{}
	}
	if !opts.KeepIsSubmitted {
		f.state.IsSubmitted = false
		f.state.IsSubmitSuccessful = false
	}
	if !opts.KeepSubmitCount {
		f.state.SubmitCount = 0
	}
	f.state.IsSubmitting = false
	f.state.ValidatingFields = map[string]bool{}
	for id := range f.asyncSeq {
		f.asyncSeq[id]++
	}
	for id, timer := range f.asyncTimers {
		timer.Stop()
		delete(f.asyncTimers, id)
	}
	f.state.reconcile(f.loading)
	f.mu.Unlock()
	f.emit()
}

// ResetFieldOptions controls what ResetField retains for a single field.
type ResetFieldOptions struct {
	KeepValue   bool
	KeepError   bool
	KeepDirty   bool
	KeepTouched bool
}

// ResetField restores one field to its initial value with per-mark retention.
func (f *Form) ResetField(id string, opts ResetFieldOptions) error {
	f.mu.Lock()
	if _, ok := f.fields[id]; !ok {
		f.mu.Unlock()
		return fmt.Errorf("form: unknown field %q", id)
	}
	if !opts.KeepValue {
		if initial, ok := f.initial[id]; ok {
			f.values[id] = deepCopy(initial)
		} else {
			delete(f.values, id)
		}
	}
	if !opts.KeepError {
		delete(f.state.Errors, id)
	}
	if !opts.KeepDirty {
		delete(f.state.DirtyFields, id)
	}
	if !opts.KeepTouched {
		delete(f.state.TouchedFields, id)
	}
	delete(f.state.ValidatingFields, id)
	f.asyncSeq[id]++
	if timer := f.asyncTimers[id]; timer != nil {
		timer.Stop()
		delete(f.asyncTimers, id)
	}
	f.state.reconcile(f.loading)
	f.mu.Unlock()
	f.emit()
	return nil
}
