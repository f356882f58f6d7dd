package model

import (
	"context"
	"time"
)

// FieldKind enumerates the input kinds the state engine understands.
type FieldKind string

const (
	KindText   FieldKind = "text"
	KindSelect FieldKind = "select"
	KindChip   FieldKind = "chip"
	KindArray  FieldKind = "array"
)

// Values maps field identifiers to their raw values: string for text/select,
// []string for chip, []any for array.
type Values map[string]any

// Option is a selectable value/label pair for select and chip fields.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// Rule is a caller-supplied validation predicate. A nil return means the
// value is valid; a non-nil error supplies the message shown to the user.
type Rule func(value any, values Values) error

// AsyncRule is the asynchronous counterpart of Rule. Implementations may
// block (remote lookups, uniqueness checks); the engine debounces invocations
// and discards stale results.
type AsyncRule func(ctx context.Context, value any, values Values) error

// Validation collects the declarative constraints attached to a field.
type Validation struct {
	// Pattern is a regular expression the string value must match. It is
	// ignored for masked fields, where the digit-count check supersedes it.
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	// Message overrides the default pattern-mismatch message.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
	// Required overrides FieldDefinition.Required when set.
	Required *bool `json:"required,omitempty" yaml:"required,omitempty"`
	// Dependencies lists field identifiers whose changes should trigger
	// revalidation of this field.
	Dependencies []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	// Matches names another field whose value this one must equal, the
	// serialisable form of a confirmation input (password/confirmPassword).
	// It resolves to an equality rule at form construction when Custom is
	// nil, and implicitly joins Dependencies.
	Matches string `json:"matches,omitempty" yaml:"matches,omitempty"`

	Custom        Rule          `json:"-" yaml:"-"`
	Async         AsyncRule     `json:"-" yaml:"-"`
	AsyncDebounce time.Duration `json:"-" yaml:"-"`
}

// Condition controls whether a field is currently displayed. Hidden fields
// are excluded from submission-time validation and keep no errors.
type Condition struct {
	// DependsOn lists the field identifiers the predicate reads; changes to
	// any of them trigger re-evaluation of dependent state.
	DependsOn []string `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
	// When holds a serialisable expression (see pkg/visibility) compiled at
	// form construction when ShouldDisplay is nil.
	When string `json:"when,omitempty" yaml:"when,omitempty"`

	ShouldDisplay func(values Values) bool `json:"-" yaml:"-"`
}

// Transform holds the optional value transforms applied on the way in (UI
// input before storage) and on the way out (watch reads, submit payloads).
type Transform struct {
	Input  func(value any) any `json:"-" yaml:"-"`
	Output func(value any) any `json:"-" yaml:"-"`
}

// FieldDefinition is the static declarative description of one input.
type FieldDefinition struct {
	ID          string    `json:"id" yaml:"id"`
	Kind        FieldKind `json:"kind" yaml:"kind"`
	Label       string    `json:"label,omitempty" yaml:"label,omitempty"`
	Placeholder string    `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool      `json:"required,omitempty" yaml:"required,omitempty"`
	// Secret requests masked echo when the field is filled interactively.
	Secret  bool `json:"secret,omitempty" yaml:"secret,omitempty"`
	Default any  `json:"default,omitempty" yaml:"default,omitempty"`

	// Mask is a display pattern for text fields; '#' consumes one digit of
	// the raw value, every other character is a literal.
	Mask string `json:"mask,omitempty" yaml:"mask,omitempty"`

	// Options applies to select and chip kinds.
	Options []Option `json:"options,omitempty" yaml:"options,omitempty"`

	// MinItems/MaxItems bound chip and array kinds; zero means unbounded.
	MinItems int `json:"minItems,omitempty" yaml:"minItems,omitempty"`
	MaxItems int `json:"maxItems,omitempty" yaml:"maxItems,omitempty"`

	Validation Validation `json:"validation,omitempty" yaml:"validation,omitempty"`
	Condition  *Condition `json:"condition,omitempty" yaml:"condition,omitempty"`
	Transform  Transform  `json:"-" yaml:"-"`

	// Template synthesises per-item definitions for array kinds. TemplateFunc
	// wins when both are set.
	Template     *FieldDefinition                `json:"template,omitempty" yaml:"template,omitempty"`
	TemplateFunc func(index int) FieldDefinition `json:"-" yaml:"-"`

	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// IsRequired resolves the effective required flag, honouring the validation
// override when present.
func (f FieldDefinition) IsRequired() bool {
	if f.Validation.Required != nil {
		return *f.Validation.Required
	}
	return f.Required
}

// IsList reports whether the field's value is list shaped.
func (f FieldDefinition) IsList() bool {
	return f.Kind == KindChip || f.Kind == KindArray
}

// Config is the declarative rows -> columns -> fields tree consumed once per
// form instance.
type Config struct {
	ID       string            `json:"id,omitempty" yaml:"id,omitempty"`
	Title    string            `json:"title,omitempty" yaml:"title,omitempty"`
	Rows     []Row             `json:"rows" yaml:"rows"`
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Row groups columns for layout purposes; the engine only cares about the
// fields it yields.
type Row struct {
	ID      string   `json:"id,omitempty" yaml:"id,omitempty"`
	Columns []Column `json:"columns" yaml:"columns"`
}

// Column wraps a field. A column without an explicit nested Field is itself
// a field definition: its inline attributes double as the definition.
type Column struct {
	Field           *FieldDefinition `json:"field,omitempty" yaml:"field,omitempty"`
	FieldDefinition `json:",inline" yaml:",inline"`
}

// Definition resolves the column's field definition, preferring the nested
// form over the inline one.
func (c Column) Definition() FieldDefinition {
	if c.Field != nil {
		return *c.Field
	}
	return c.FieldDefinition
}
