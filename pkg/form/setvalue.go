package form

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/validation"
)

type setConfig struct {
	dirty    bool
	touch    bool
	validate bool
	mode     Mode
}

// SetOption adjusts a single SetValue call.
type SetOption func(*setConfig)

// SkipDirty suppresses the dirty mark for this write; writes mark the field
// dirty by default.
func SkipDirty() SetOption {
	return func(c *setConfig) { c.dirty = false }
}

// WithTouch marks the field as touched, which also triggers validation under
// the onBlur/onTouched/all modes.
func WithTouch() SetOption {
	return func(c *setConfig) { c.touch = true }
}

// WithValidation forces validation of this write regardless of the form's
// ambient mode.
func WithValidation() SetOption {
	return func(c *setConfig) { c.validate = true }
}

// WithTriggerMode overrides the ambient validation mode for this call only.
func WithTriggerMode(mode Mode) SetOption {
	return func(c *setConfig) { c.mode = mode }
}

// SetValue writes a raw value into the store, updating dirty/touched marks
// and triggering validation according to the effective mode. When dependency
// revalidation is enabled, every field that declared this one as a dependency
// is revalidated as well.
func (f *Form) SetValue(id string, value any, opts ...SetOption) error {
	cfg := setConfig{dirty: true, mode: f.opts.mode}
	for _, opt := range opts {
		opt(&cfg)
	}

	f.mu.Lock()
	changed, err := f.setValueLocked(id, value, cfg)
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

// setValueLocked is the write path shared by SetValue and the array mutation
// handle, which must hold the lock across its whole read-modify-write. It
// reports whether the observable snapshot changed: the value itself, the
// field's dirty/touched marks, or its error entry.
func (f *Form) setValueLocked(id string, value any, cfg setConfig) (bool, error) {
	def, ok := f.fields[id]
	if !ok {
		return false, fmt.Errorf("form: unknown field %q", id)
	}

	previous, hadPrevious := f.values[id]
	prevDirty := f.state.DirtyFields[id]
	prevTouched := f.state.TouchedFields[id]
	prevErr, hadErr := f.state.Errors[id]

	f.values[id] = deepCopy(value)

	if cfg.dirty {
		if f.opts.fieldLevelDirty && reflect.DeepEqual(f.values[id], f.initial[id]) {
			delete(f.state.DirtyFields, id)
		} else {
			f.state.DirtyFields[id] = true
		}
	}
	if cfg.touch {
		f.state.TouchedFields[id] = true
	}

	if f.shouldValidateLocked(id, cfg) {
		f.validateLocked(def, f.values[id])
		if f.opts.dependencyRevalidation {
			f.revalidateDependentsLocked(id)
		}
	}
	f.state.reconcile(f.loading)

	changed := !hadPrevious || !reflect.DeepEqual(previous, f.values[id])
	if f.state.DirtyFields[id] != prevDirty || f.state.TouchedFields[id] != prevTouched {
		changed = true
	}
	if err, ok := f.state.Errors[id]; ok != hadErr || err != prevErr {
		changed = true
	}
	return changed, nil
}

// shouldValidateLocked resolves whether this write triggers validation, and
// consumes the skip-initial mark when it would have.
func (f *Form) shouldValidateLocked(id string, cfg setConfig) bool {
	auto := false
	switch cfg.mode {
	case ModeOnChange, ModeAll:
		auto = true
	case ModeOnBlur:
		auto = cfg.touch
	case ModeOnTouched:
		auto = cfg.touch || f.state.TouchedFields[id]
	}

	if auto {
		if _, skip := f.skipInitial[id]; skip {
			delete(f.skipInitial, id)
			auto = false
		}
	}
	return cfg.validate || auto
}

// ValidateField validates a single field against its current value, updating
// the error map. It reports whether the synchronous checks passed; async
// rules settle out-of-band.
func (f *Form) ValidateField(id string) (bool, error) {
	f.mu.Lock()
	def, ok := f.fields[id]
	if !ok {
		f.mu.Unlock()
		return false, fmt.Errorf("form: unknown field %q", id)
	}
	valid := f.validateLocked(def, f.values[id])
	f.state.reconcile(f.loading)
	f.mu.Unlock()
	f.emit()
	return valid, nil
}

// validateLocked runs the synchronous checks for def against candidate and
// records the outcome. Async rules are scheduled but never block. Custom rules
// get a deep copy of the value set; the store is never handed out.
func (f *Form) validateLocked(def model.FieldDefinition, candidate any) bool {
	id := def.ID
	candidate = deepCopy(candidate)
	f.state.ValidatingFields[id] = true
	ferr := validation.Check(def, candidate, cloneValues(f.values))
	delete(f.state.ValidatingFields, id)

	if ferr != nil {
		f.state.Errors[id] = *ferr
	} else {
		delete(f.state.Errors, id)
		if def.Validation.Async != nil {
			f.scheduleAsyncLocked(def, candidate)
		}
	}
	f.state.reconcile(f.loading)
	return ferr == nil
}

func (f *Form) revalidateDependentsLocked(id string) {
	for _, dependent := range f.dependents[id] {
		def, ok := f.fields[dependent]
		if !ok {
			continue
		}
		if !f.shouldDisplayLocked(dependent) {
			// Hidden fields never surface blocking errors.
			delete(f.state.Errors, dependent)
			continue
		}
		f.validateLocked(def, f.values[dependent])
	}
}

// scheduleAsyncLocked debounces the field's async rule. Each schedule bumps
// the field's sequence number; a result only applies while its sequence is
// still the latest, so stale results never overwrite fresher state.
func (f *Form) scheduleAsyncLocked(def model.FieldDefinition, candidate any) {
	id := def.ID
	f.asyncSeq[id]++
	seq := f.asyncSeq[id]
	f.state.ValidatingFields[id] = true

	if timer := f.asyncTimers[id]; timer != nil {
		timer.Stop()
	}

	candidate = deepCopy(candidate)
	delay := def.Validation.AsyncDebounce
	f.asyncTimers[id] = time.AfterFunc(delay, func() {
		f.runAsync(def, seq, candidate)
	})
}

func (f *Form) runAsync(def model.FieldDefinition, seq uint64, candidate any) {
	id := def.ID

	f.mu.Lock()
	if f.asyncSeq[id] != seq {
		f.mu.Unlock()
		f.log.Debug("async validation superseded before start",
			zap.String("form", f.id), zap.String("field", id), zap.Uint64("seq", seq))
		return
	}
	values := cloneValues(f.values)
	f.mu.Unlock()

	err := def.Validation.Async(context.Background(), candidate, values)

	f.mu.Lock()
	if f.asyncSeq[id] != seq {
		f.mu.Unlock()
		f.log.Debug("stale async validation result discarded",
			zap.String("form", f.id), zap.String("field", id), zap.Uint64("seq", seq))
		return
	}
	delete(f.state.ValidatingFields, id)
	if err != nil {
		f.state.Errors[id] = asyncError(err)
	} else {
		delete(f.state.Errors, id)
	}
	f.state.reconcile(f.loading)
	f.mu.Unlock()
	f.emit()
}

func asyncError(err error) validation.FieldError {
	var ferr *validation.FieldError
	if errors.As(err, &ferr) {
		return *ferr
	}
	return validation.FieldError{
		Kind:    validation.KindValidation,
		Code:    validation.CodeAsync,
		Message: err.Error(),
	}
}
