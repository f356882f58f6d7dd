// Package form implements the state engine behind a declaratively configured
// form: the value store, dirty/touched/error bookkeeping, validation
// triggering, array mutations, submission orchestration, and reset. Rendering
// layers hold a *Form reference and use its read/write operations directly or
// subscribe for snapshots; there is no ambient context propagation.
//
// All state lives behind one mutex, so the API is safe for concurrent use by
// UI callbacks, debounced submits, and async validators.
package form

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-formstate/pkg/mask"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/validation"
	"github.com/goliatone/go-formstate/pkg/visibility"
)

// Snapshot is what subscribers receive after every observable change. Both
// members are deep copies; listeners may retain them freely.
type Snapshot struct {
	Values model.Values
	State  State
}

// Form owns the state for a single form instance.
type Form struct {
	id     string
	cfg    model.Config
	fields map[string]model.FieldDefinition
	order  []string
	// display holds the resolved visibility predicate per conditioned field.
	display map[string]func(model.Values) bool
	// dependents is the inverse dependency graph: id -> fields that declared
	// id in validation dependencies or condition dependsOn. Built once.
	dependents map[string][]string
	opts       options
	log        *zap.Logger

	mu          sync.Mutex
	values      model.Values
	initial     model.Values
	state       State
	loading     bool
	skipInitial map[string]struct{}
	asyncSeq    map[string]uint64
	asyncTimers map[string]*time.Timer
	submitSeq   uint64

	listeners    map[int]func(Snapshot)
	nextListener int
}

// New builds a form instance from the declarative config. Configuration
// errors (duplicate or empty field ids, malformed array templates, bad
// condition expressions) fail here, never at runtime.
func New(cfg model.Config, opts ...Option) (*Form, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	ordered, err := model.OrderedFields(cfg)
	if err != nil {
		return nil, err
	}

	f := &Form{
		id:          uuid.NewString(),
		cfg:         cfg,
		fields:      make(map[string]model.FieldDefinition, len(ordered)),
		display:     map[string]func(model.Values) bool{},
		dependents:  map[string][]string{},
		opts:        o,
		log:         o.logger,
		values:      model.Values{},
		state:       newState(),
		skipInitial: map[string]struct{}{},
		asyncSeq:    map[string]uint64{},
		asyncTimers: map[string]*time.Timer{},
		listeners:   map[int]func(Snapshot){},
	}

	for _, def := range ordered {
		f.order = append(f.order, def.ID)
		if def.Validation.Matches != "" && def.Validation.Custom == nil {
			def.Validation.Custom = validation.MatchesField(def.Validation.Matches, def.Validation.Message)
		}
		if def.Condition != nil {
			pred := def.Condition.ShouldDisplay
			if pred == nil && def.Condition.When != "" {
				compiled, err := visibility.Compile(def.Condition.When)
				if err != nil {
					return nil, fmt.Errorf("form: field %q condition: %w", def.ID, err)
				}
				pred = func(values model.Values) bool { return compiled(values) }
			}
			if pred != nil {
				f.display[def.ID] = pred
			}
		}
		f.fields[def.ID] = def

		deps := def.Validation.Dependencies
		if def.Validation.Matches != "" {
			deps = append(append([]string(nil), deps...), def.Validation.Matches)
		}
		for _, dep := range deps {
			f.dependents[dep] = append(f.dependents[dep], def.ID)
		}
		if def.Condition != nil {
			for _, dep := range def.Condition.DependsOn {
				f.dependents[dep] = append(f.dependents[dep], def.ID)
			}
		}
	}

	for _, def := range ordered {
		if def.Default != nil {
			f.values[def.ID] = deepCopy(def.Default)
		}
	}
	for id, value := range o.defaults {
		if _, ok := f.fields[id]; ok {
			f.values[id] = deepCopy(value)
		}
	}
	f.initial = cloneValues(f.values)

	f.log.Debug("form created",
		zap.String("form", f.id),
		zap.Int("fields", len(f.fields)),
		zap.String("mode", string(o.mode)))
	return f, nil
}

// ID returns the instance identifier used in log fields.
func (f *Form) ID() string { return f.id }

// Field returns the definition registered for id.
func (f *Form) Field(id string) (model.FieldDefinition, bool) {
	def, ok := f.fields[id]
	return def, ok
}

// FieldIDs returns the identifiers in declaration order.
func (f *Form) FieldIDs() []string {
	return append([]string(nil), f.order...)
}

// Value returns the raw stored value for a single field.
func (f *Form) Value(id string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[id]
	return deepCopy(v), ok
}

// Values returns a deep copy of the whole raw value snapshot.
func (f *Form) Values() model.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneValues(f.values)
}

// Watch reads a single field through its output transform (when field
// transformation is enabled).
func (f *Form) Watch(id string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transformedLocked(id, f.values[id])
}

// WatchAll returns the whole snapshot with output transforms applied.
func (f *Form) WatchAll() model.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(model.Values, len(f.values))
	for id, value := range f.values {
		out[id] = f.transformedLocked(id, value)
	}
	return out
}

func (f *Form) transformedLocked(id string, value any) any {
	value = deepCopy(value)
	if !f.opts.fieldTransformation {
		return value
	}
	if def, ok := f.fields[id]; ok && def.Transform.Output != nil {
		return def.Transform.Output(value)
	}
	return value
}

// TransformField applies the field's input transform to a candidate value,
// the step a rendering layer runs before SetValue.
func (f *Form) TransformField(id string, value any) any {
	def, ok := f.fields[id]
	if !ok || def.Transform.Input == nil {
		return value
	}
	return def.Transform.Input(value)
}

// State returns a copy of the enhanced form state.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.clone()
}

// ShouldDisplayField evaluates the field's display condition against the
// current values. Fields without a condition are always displayed.
func (f *Form) ShouldDisplayField(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shouldDisplayLocked(id)
}

// shouldDisplayLocked evaluates the field's predicate against a deep copy of
// the values, so caller-supplied predicates can neither mutate the store nor
// retain a reference that races with later writes.
func (f *Form) shouldDisplayLocked(id string) bool {
	pred, ok := f.display[id]
	if !ok {
		return true
	}
	return pred(cloneValues(f.values))
}

// Dependencies returns the identifiers the given field declared as inputs to
// its validation or display condition.
func (f *Form) Dependencies(id string) []string {
	def, ok := f.fields[id]
	if !ok {
		return nil
	}
	var out []string
	out = append(out, def.Validation.Dependencies...)
	if def.Validation.Matches != "" {
		out = append(out, def.Validation.Matches)
	}
	if def.Condition != nil {
		out = append(out, def.Condition.DependsOn...)
	}
	return dedupe(out)
}

// Dependents is the inverse lookup: the fields whose validation or display
// depends on id.
func (f *Form) Dependents(id string) []string {
	return dedupe(append([]string(nil), f.dependents[id]...))
}

// Subscribe registers a listener invoked with a snapshot after every
// observable change. The returned function removes the listener.
func (f *Form) Subscribe(fn func(Snapshot)) func() {
	if fn == nil {
		return func() {}
	}
	f.mu.Lock()
	key := f.nextListener
	f.nextListener++
	f.listeners[key] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.listeners, key)
		f.mu.Unlock()
	}
}

// SetLoading toggles the form-level loading flag.
func (f *Form) SetLoading(loading bool) {
	f.mu.Lock()
	f.loading = loading
	f.state.reconcile(f.loading)
	f.mu.Unlock()
	f.emit()
}

// SetFieldLoading marks a single field as loading, for async option sources
// and similar per-field pending states.
func (f *Form) SetFieldLoading(id string, loading bool) error {
	f.mu.Lock()
	if _, ok := f.fields[id]; !ok {
		f.mu.Unlock()
		return fmt.Errorf("form: unknown field %q", id)
	}
	if loading {
		f.state.LoadingFields[id] = true
	} else {
		delete(f.state.LoadingFields, id)
	}
	f.state.reconcile(f.loading)
	f.mu.Unlock()
	f.emit()
	return nil
}

// SetError maps an externally produced failure (typically a server response)
// onto a field. The engine never infers field attribution itself.
func (f *Form) SetError(id, message string) error {
	f.mu.Lock()
	if _, ok := f.fields[id]; !ok {
		f.mu.Unlock()
		return fmt.Errorf("form: unknown field %q", id)
	}
	f.state.Errors[id] = validation.FieldError{
		Kind:    validation.KindValidation,
		Code:    validation.CodeForm,
		Message: message,
	}
	f.state.reconcile(f.loading)
	f.mu.Unlock()
	f.emit()
	return nil
}

// ClearErrors drops every recorded field error.
func (f *Form) ClearErrors() {
	f.mu.Lock()
	f.state.Errors = map[string]validation.FieldError{}
	f.state.reconcile(f.loading)
	f.mu.Unlock()
	f.emit()
}

// SkipInitialValidation marks fields whose first automatic validation should
// be skipped, e.g. prefilled values already vetted by the caller. The mark is
// consumed the first time mode-driven validation would fire; explicit
// validation requests ignore it.
func (f *Form) SkipInitialValidation(ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if _, ok := f.fields[id]; ok {
			f.skipInitial[id] = struct{}{}
		}
	}
}

// MaskedValue derives the display representation for one field: masked text
// rendered through its pattern, select/chip values resolved to labels.
func (f *Form) MaskedValue(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maskedLocked(id)
}

// MaskedValues derives the display representation for every maskable field.
// The result is read-only convenience data, never a source of truth.
func (f *Form) MaskedValues() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string)
	for id, def := range f.fields {
		if def.Mask == "" && def.Kind != model.KindSelect && def.Kind != model.KindChip {
			continue
		}
		out[id] = f.maskedLocked(id)
	}
	return out
}

func (f *Form) maskedLocked(id string) string {
	def, ok := f.fields[id]
	if !ok {
		return ""
	}
	raw := f.values[id]
	switch {
	case def.Mask != "":
		return mask.Apply(stringValue(raw), def.Mask)
	case def.Kind == model.KindSelect:
		return optionLabel(def.Options, stringValue(raw))
	case def.Kind == model.KindChip:
		var labels []string
		for _, item := range validation.AsList(raw) {
			labels = append(labels, optionLabel(def.Options, stringValue(item)))
		}
		return joinComma(labels)
	default:
		return stringValue(raw)
	}
}

// emit delivers a snapshot to every listener. It must be called without the
// mutex held.
func (f *Form) emit() {
	f.mu.Lock()
	if len(f.listeners) == 0 {
		f.mu.Unlock()
		return
	}
	snap := Snapshot{Values: cloneValues(f.values), State: f.state.clone()}
	fns := make([]func(Snapshot), 0, len(f.listeners))
	keys := make([]int, 0, len(f.listeners))
	for key := range f.listeners {
		keys = append(keys, key)
	}
	sort.Ints(keys)
	for _, key := range keys {
		fns = append(fns, f.listeners[key])
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func stringValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func optionLabel(options []model.Option, value string) string {
	for _, opt := range options {
		if opt.Value == value {
			if opt.Label != "" {
				return opt.Label
			}
			return opt.Value
		}
	}
	return value
}

func joinComma(items []string) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += ", "
		}
		out += item
	}
	return out
}
