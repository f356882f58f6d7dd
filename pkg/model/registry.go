package model

import (
	"errors"
	"fmt"
	"strings"
)

var errNoRows = errors.New("model: config has no rows")

// ExtractFields flattens the rows -> columns tree into a lookup keyed by
// field identifier. Duplicate or empty identifiers and malformed array
// templates are configuration errors and fail fast.
func ExtractFields(cfg Config) (map[string]FieldDefinition, error) {
	ordered, err := OrderedFields(cfg)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]FieldDefinition, len(ordered))
	for _, def := range ordered {
		fields[def.ID] = def
	}
	return fields, nil
}

// OrderedFields flattens the tree preserving declaration order (rows top to
// bottom, columns left to right). It performs the same configuration checks
// as ExtractFields.
func OrderedFields(cfg Config) ([]FieldDefinition, error) {
	if len(cfg.Rows) == 0 {
		return nil, errNoRows
	}

	seen := make(map[string]struct{})
	var out []FieldDefinition
	for ri, row := range cfg.Rows {
		for ci, column := range row.Columns {
			def := column.Definition()
			id := strings.TrimSpace(def.ID)
			if id == "" {
				return nil, fmt.Errorf("model: row %d column %d declares an empty field id", ri, ci)
			}
			if _, dup := seen[id]; dup {
				return nil, fmt.Errorf("model: duplicate field id %q", id)
			}
			if err := validateDefinition(def); err != nil {
				return nil, err
			}
			seen[id] = struct{}{}
			def.ID = id
			out = append(out, def)
		}
	}
	return out, nil
}

// FindArrayFields returns every array field in declaration order. Columns
// with invalid definitions are skipped; use ExtractFields for strict checks.
func FindArrayFields(cfg Config) []FieldDefinition {
	var out []FieldDefinition
	for _, row := range cfg.Rows {
		for _, column := range row.Columns {
			if def := column.Definition(); def.Kind == KindArray {
				out = append(out, def)
			}
		}
	}
	return out
}

func validateDefinition(def FieldDefinition) error {
	switch def.Kind {
	case KindText, KindSelect, KindChip, KindArray, "":
	default:
		return fmt.Errorf("model: field %q has unknown kind %q", def.ID, def.Kind)
	}
	if def.Mask != "" && def.Kind != KindText && def.Kind != "" {
		return fmt.Errorf("model: field %q declares a mask but is not a text field", def.ID)
	}
	if def.Kind == KindArray {
		if def.Template == nil && def.TemplateFunc == nil {
			return fmt.Errorf("model: array field %q has no item template", def.ID)
		}
		if def.Template != nil && def.Template.Kind != KindText && def.Template.Kind != "" {
			return fmt.Errorf("model: array field %q item template must be a text field, got %q", def.ID, def.Template.Kind)
		}
	}
	return nil
}

// ItemID derives the transient identifier of an array item. Item ids exist
// only for rendering; they are never registered as fields of their own.
func ItemID(arrayID string, index int) string {
	return fmt.Sprintf("%s-%d", arrayID, index)
}

// ItemDefinition synthesises the definition for one array item from the
// field's template.
func (f FieldDefinition) ItemDefinition(index int) (FieldDefinition, error) {
	if f.Kind != KindArray {
		return FieldDefinition{}, fmt.Errorf("model: field %q is not an array field", f.ID)
	}
	var item FieldDefinition
	switch {
	case f.TemplateFunc != nil:
		item = f.TemplateFunc(index)
	case f.Template != nil:
		item = *f.Template
	default:
		return FieldDefinition{}, fmt.Errorf("model: array field %q has no item template", f.ID)
	}
	if item.Kind == "" {
		item.Kind = KindText
	}
	item.ID = ItemID(f.ID, index)
	return item, nil
}
