// Package formstate re-exports the state engine behind declaratively
// configured forms: field registry, value store, masking, validation,
// conditional visibility, array mutations, submission and reset. The
// subpackages hold the implementations; this package keeps one-import usage
// ergonomic.
package formstate

import (
	"github.com/goliatone/go-formstate/pkg/config"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/model"
)

// Config is the declarative rows -> columns -> fields tree.
type Config = model.Config

// Row groups columns for layout.
type Row = model.Row

// Column wraps a field definition, inline or nested.
type Column = model.Column

// FieldDefinition statically describes one input.
type FieldDefinition = model.FieldDefinition

// Values maps field identifiers to raw values.
type Values = model.Values

// Form owns the state for one form instance.
type Form = form.Form

// State is the enhanced form-level status record.
type State = form.State

// Option customises a form at construction.
type Option = form.Option

// New builds a form instance from a declarative config.
func New(cfg Config, opts ...Option) (*Form, error) {
	return form.New(cfg, opts...)
}

// Load parses a form config document (YAML or JSON) and fails fast on
// configuration errors.
func Load(data []byte, source string) (Config, error) {
	return config.Load(data, source)
}

// LoadFile reads and parses a form config document from disk.
func LoadFile(path string) (Config, error) {
	return config.LoadFile(path)
}
