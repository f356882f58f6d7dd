package form

import (
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formstate/pkg/model"
)

// Mode selects when the engine validates automatically.
type Mode string

const (
	// ModeOnSubmit validates only when the form is submitted (default).
	ModeOnSubmit Mode = "onSubmit"
	// ModeOnChange validates a field on every SetValue.
	ModeOnChange Mode = "onChange"
	// ModeOnBlur validates a field when it is touched.
	ModeOnBlur Mode = "onBlur"
	// ModeOnTouched behaves like ModeOnBlur but keeps validating already
	// touched fields on change.
	ModeOnTouched Mode = "onTouched"
	// ModeAll validates on both change and touch.
	ModeAll Mode = "all"
	// ModeNone disables automatic validation entirely.
	ModeNone Mode = "none"
)

// FormValidator is the optional whole-form validator run at submission. It
// returns messages keyed by field identifier; a non-empty result blocks the
// submit callback.
type FormValidator func(values model.Values) map[string]string

type options struct {
	mode                   Mode
	defaults               model.Values
	submitDebounce         time.Duration
	formValidation         FormValidator
	fieldTransformation    bool
	dependencyRevalidation bool
	fieldLevelDirty        bool
	notifyOnlyOnChange     bool
	logger                 *zap.Logger
}

func defaultOptions() options {
	return options{
		mode:   ModeOnSubmit,
		logger: zap.NewNop(),
	}
}

// Option customises a form instance at construction.
type Option func(*options)

// WithMode sets the ambient validation trigger mode.
func WithMode(mode Mode) Option {
	return func(o *options) {
		if mode != "" {
			o.mode = mode
		}
	}
}

// WithDefaultValues overlays caller-supplied defaults on top of the per-field
// declared defaults.
func WithDefaultValues(values model.Values) Option {
	return func(o *options) {
		o.defaults = values
	}
}

// WithSubmitDebounce collapses bursts of submit calls: only the last call
// within the quiet period invokes the callback, earlier ones return
// ErrSuperseded.
func WithSubmitDebounce(d time.Duration) Option {
	return func(o *options) {
		o.submitDebounce = d
	}
}

// WithFormValidation installs a whole-form validator merged into the error
// map at submission time.
func WithFormValidation(fn FormValidator) Option {
	return func(o *options) {
		o.formValidation = fn
	}
}

// WithFieldTransformation enables per-field output transforms on watch reads
// and submit payloads.
func WithFieldTransformation() Option {
	return func(o *options) {
		o.fieldTransformation = true
	}
}

// WithDependencyRevalidation revalidates every field that declared the edited
// field in its validation dependencies or display condition.
func WithDependencyRevalidation() Option {
	return func(o *options) {
		o.dependencyRevalidation = true
	}
}

// WithFieldLevelDirtyChecking compares values against the initial snapshot on
// every write, so restoring a field's default clears its dirty flag instead
// of leaving it set.
func WithFieldLevelDirtyChecking() Option {
	return func(o *options) {
		o.fieldLevelDirty = true
	}
}

// WithPerformanceOptimizations suppresses listener notifications for writes
// that do not change the observable snapshot.
func WithPerformanceOptimizations() Option {
	return func(o *options) {
		o.notifyOnlyOnChange = true
	}
}

// WithLogger attaches a structured logger; defaults to a nop logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
