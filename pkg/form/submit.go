package form

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// SubmitFunc receives the (optionally transformed) payload once every visible
// field validated.
type SubmitFunc func(ctx context.Context, values model.Values) error

var (
	// ErrValidationFailed reports that submission stopped before the callback
	// because at least one visible field failed validation. Inspect
	// State().Errors for the per-field details.
	ErrValidationFailed = errors.New("form: validation failed")
	// ErrSuperseded reports that a newer submit call arrived during the
	// debounce quiet period; only the newest call invokes the callback.
	ErrSuperseded = errors.New("form: submit superseded")
)

// HandleSubmit wraps the caller's callback in the submission state machine:
// mark submitting, validate every visible field (clearing stale errors on
// hidden ones), merge the whole-form validator, and invoke the callback only
// when nothing blocks. Callback failures are not swallowed; they propagate to
// the caller of the returned function.
func (f *Form) HandleSubmit(cb SubmitFunc) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return f.submit(ctx, cb)
	}
}

func (f *Form) submit(ctx context.Context, cb SubmitFunc) error {
	f.mu.Lock()
	f.submitSeq++
	seq := f.submitSeq
	f.state.IsSubmitting = true
	f.state.IsSubmitted = true
	f.state.SubmitCount++

	valid := f.validateAllLocked()
	if f.opts.formValidation != nil {
		for id, message := range f.opts.formValidation(cloneValues(f.values)) {
			f.state.Errors[id] = validation.FieldError{
				Kind:    validation.KindValidation,
				Code:    validation.CodeForm,
				Message: message,
			}
			valid = false
		}
	}
	f.state.reconcile(f.loading)

	if !valid {
		f.state.IsSubmitting = false
		errCount := len(f.state.Errors)
		f.mu.Unlock()
		f.emit()
		f.log.Debug("submit blocked by validation",
			zap.String("form", f.id), zap.Int("errors", errCount))
		return ErrValidationFailed
	}
	f.mu.Unlock()
	f.emit()

	if delay := f.opts.submitDebounce; delay > 0 {
		select {
		case <-ctx.Done():
			f.finishSubmit(false)
			return ctx.Err()
		case <-time.After(delay):
		}
		f.mu.Lock()
		superseded := f.submitSeq != seq
		f.mu.Unlock()
		if superseded {
			return ErrSuperseded
		}
	}

	payload := f.payload()
	f.log.Debug("invoking submit callback", zap.String("form", f.id))
	if err := cb(ctx, payload); err != nil {
		f.finishSubmit(false)
		return fmt.Errorf("form: submit: %w", err)
	}
	f.finishSubmit(true)
	return nil
}

// validateAllLocked validates every displayed field against its current
// value. Hidden fields are skipped and any stale error they carried is
// cleared so it never blocks submission.
func (f *Form) validateAllLocked() bool {
	valid := true
	for _, id := range f.order {
		def := f.fields[id]
		if !f.shouldDisplayLocked(id) {
			delete(f.state.Errors, id)
			continue
		}
		if !f.validateLocked(def, f.values[id]) {
			valid = false
		}
	}
	return valid
}

// payload builds the submission value set, applying output transforms when
// field transformation is enabled.
func (f *Form) payload() model.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(model.Values, len(f.values))
	for id, value := range f.values {
		out[id] = f.transformedLocked(id, value)
	}
	return out
}

func (f *Form) finishSubmit(success bool) {
	f.mu.Lock()
	f.state.IsSubmitting = false
	f.state.IsSubmitSuccessful = success
	f.mu.Unlock()
	f.emit()
}
