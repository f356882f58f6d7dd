// Package openapi derives form configs from OpenAPI documents: the request
// body schema of an operation becomes a rows/columns tree the state engine
// can drive. One field per row keeps the generated layout predictable;
// callers wanting richer layouts post-process the config.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formstate/pkg/model"
)

var errNoRequestSchema = errors.New("openapi: operation has no object request schema")

// FromDocument loads an OpenAPI document and derives the form config for the
// operation with the given id.
func FromDocument(ctx context.Context, raw []byte, operationID string) (model.Config, error) {
	if len(raw) == 0 {
		return model.Config{}, errors.New("openapi: document payload is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return model.Config{}, fmt.Errorf("openapi: load document: %w", err)
	}
	operation := findOperation(doc, operationID)
	if operation == nil {
		return model.Config{}, fmt.Errorf("openapi: operation %q not found", operationID)
	}
	return FromOperation(operationID, operation)
}

// FromOperation derives a form config from a parsed operation.
func FromOperation(operationID string, operation *openapi3.Operation) (model.Config, error) {
	schema := requestSchema(operation)
	if schema == nil || !schema.Type.Is(openapi3.TypeObject) || len(schema.Properties) == 0 {
		return model.Config{}, errNoRequestSchema
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	cfg := model.Config{ID: operationID, Title: strings.TrimSpace(operation.Summary)}
	for _, name := range names {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		def, err := fieldFromSchema(name, ref.Value, required[name])
		if err != nil {
			return model.Config{}, err
		}
		cfg.Rows = append(cfg.Rows, model.Row{
			ID:      "row-" + name,
			Columns: []model.Column{{Field: &def}},
		})
	}
	if len(cfg.Rows) == 0 {
		return model.Config{}, errNoRequestSchema
	}
	return cfg, nil
}

func findOperation(doc *openapi3.T, operationID string) *openapi3.Operation {
	if doc == nil || doc.Paths == nil {
		return nil
	}
	for _, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for _, operation := range item.Operations() {
			if operation != nil && operation.OperationID == operationID {
				return operation
			}
		}
	}
	return nil
}

func requestSchema(operation *openapi3.Operation) *openapi3.Schema {
	if operation == nil || operation.RequestBody == nil || operation.RequestBody.Value == nil {
		return nil
	}
	content := operation.RequestBody.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	for _, mt := range content {
		if mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

func fieldFromSchema(name string, schema *openapi3.Schema, required bool) (model.FieldDefinition, error) {
	def := model.FieldDefinition{
		ID:          name,
		Kind:        model.KindText,
		Label:       labelFor(name, schema),
		Description: strings.TrimSpace(schema.Description),
		Required:    required,
	}
	if schema.Default != nil {
		def.Default = schema.Default
	}

	switch {
	case len(schema.Enum) > 0:
		def.Kind = model.KindSelect
		def.Options = optionsFromEnum(schema.Enum)
	case schema.Type.Is(openapi3.TypeArray):
		items := itemSchema(schema)
		if items != nil && len(items.Enum) > 0 {
			def.Kind = model.KindChip
			def.Options = optionsFromEnum(items.Enum)
		} else {
			def.Kind = model.KindArray
			def.Template = &model.FieldDefinition{
				Kind:        model.KindText,
				Label:       def.Label,
				Placeholder: placeholderFor(items),
			}
		}
		if schema.MinItems > 0 {
			def.MinItems = int(schema.MinItems)
		}
		if schema.MaxItems != nil {
			def.MaxItems = int(*schema.MaxItems)
		}
	case schema.Type.Is(openapi3.TypeString):
		if schema.Format == "password" {
			def.Secret = true
		}
		def.Validation.Pattern = schema.Pattern
	case schema.Type.Is(openapi3.TypeInteger), schema.Type.Is(openapi3.TypeNumber):
		def.Validation.Pattern = `^-?\d+(\.\d+)?$`
		def.Validation.Message = def.Label + " must be a number"
	case schema.Type.Is(openapi3.TypeBoolean):
		def.Kind = model.KindSelect
		def.Options = []model.Option{
			{Value: "true", Label: "Yes"},
			{Value: "false", Label: "No"},
		}
	case schema.Type.Is(openapi3.TypeObject):
		return model.FieldDefinition{}, fmt.Errorf("openapi: nested object field %q is not supported", name)
	}

	return def, nil
}

func itemSchema(schema *openapi3.Schema) *openapi3.Schema {
	if schema.Items == nil {
		return nil
	}
	return schema.Items.Value
}

func optionsFromEnum(enum []any) []model.Option {
	out := make([]model.Option, 0, len(enum))
	for _, raw := range enum {
		value := strings.TrimSpace(fmt.Sprint(raw))
		if value == "" {
			continue
		}
		out = append(out, model.Option{Value: value, Label: titleCase(value)})
	}
	return out
}

func labelFor(name string, schema *openapi3.Schema) string {
	if title := strings.TrimSpace(schema.Title); title != "" {
		return title
	}
	return titleCase(name)
}

func placeholderFor(schema *openapi3.Schema) string {
	if schema == nil {
		return ""
	}
	if schema.Example != nil {
		return strings.TrimSpace(fmt.Sprint(schema.Example))
	}
	return ""
}

// titleCase renders snake/camel identifiers as display labels: "firstName"
// and "first_name" both become "First Name".
func titleCase(name string) string {
	var words []string
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}
	for _, r := range name {
		switch {
		case r == '_' || r == '-' || r == ' ' || r == '.':
			flush()
		case r >= 'A' && r <= 'Z':
			flush()
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	flush()
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
