// Package config loads declarative form definitions from YAML or JSON
// documents. Loaded documents are checked eagerly: empty or duplicate field
// identifiers, malformed array templates, and invalid condition expressions
// all fail at load time so they never surface as runtime validation noise.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/visibility"
)

// Load parses a form config document. The source name is used for error
// messages and format detection (.json selects JSON, everything else parses
// as YAML, which also accepts JSON input).
func Load(data []byte, source string) (model.Config, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return model.Config{}, fmt.Errorf("config: document %s is empty", source)
	}

	var cfg model.Config
	if strings.EqualFold(filepath.Ext(source), ".json") {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return model.Config{}, fmt.Errorf("config: parse %s: %w", source, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return model.Config{}, fmt.Errorf("config: parse %s: %w", source, err)
		}
	}

	normalise(&cfg)
	if err := check(cfg, source); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

// LoadFile reads and parses a form config document from disk.
func LoadFile(path string) (model.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Load(data, path)
}

// normalise trims identifiers and strips markup from the display strings.
// Config documents often travel through CMS-ish pipelines, so labels are
// sanitised rather than trusted.
func normalise(cfg *model.Config) {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Title = sanitizeText(cfg.Title)
	for ri := range cfg.Rows {
		row := &cfg.Rows[ri]
		row.ID = strings.TrimSpace(row.ID)
		for ci := range row.Columns {
			column := &row.Columns[ci]
			if column.Field != nil {
				normaliseField(column.Field)
			} else {
				normaliseField(&column.FieldDefinition)
			}
		}
	}
}

func normaliseField(def *model.FieldDefinition) {
	def.ID = strings.TrimSpace(def.ID)
	def.Label = sanitizeText(def.Label)
	def.Placeholder = sanitizeText(def.Placeholder)
	def.Description = sanitizeText(def.Description)
	if def.Kind == "" {
		def.Kind = model.KindText
	}
	for i := range def.Options {
		def.Options[i].Label = sanitizeText(def.Options[i].Label)
	}
	if def.Template != nil {
		normaliseField(def.Template)
	}
}

func check(cfg model.Config, source string) error {
	fields, err := model.OrderedFields(cfg)
	if err != nil {
		return fmt.Errorf("config: %s: %w", source, err)
	}
	for _, def := range fields {
		if def.Condition != nil && def.Condition.When != "" {
			if _, err := visibility.Compile(def.Condition.When); err != nil {
				return fmt.Errorf("config: %s: field %q: %w", source, def.ID, err)
			}
		}
		if (def.Kind == model.KindSelect || def.Kind == model.KindChip) && len(def.Options) == 0 {
			return fmt.Errorf("config: %s: field %q has kind %q but no options", source, def.ID, def.Kind)
		}
	}
	return nil
}
