package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/mask"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// Filler walks a form's visible fields in declaration order, prompting for
// each one and writing answers through the store, then submits.
type Filler struct {
	form   *form.Form
	driver PromptDriver
}

// NewFiller pairs a form instance with a prompt driver; a nil driver selects
// the survey implementation.
func NewFiller(f *form.Form, driver PromptDriver) *Filler {
	if driver == nil {
		driver = NewSurveyDriver()
	}
	return &Filler{form: f, driver: driver}
}

// Run prompts for every visible field and submits. The returned values are
// the submitted payload; validation re-prompts inline, so by the time submit
// runs the only failures left are cross-field ones, reported and retried up
// to once.
func (fl *Filler) Run(ctx context.Context) (model.Values, error) {
	for _, id := range fl.form.FieldIDs() {
		if !fl.form.ShouldDisplayField(id) {
			continue
		}
		def, _ := fl.form.Field(id)
		if err := fl.prompt(ctx, def); err != nil {
			return nil, err
		}
	}

	var payload model.Values
	submit := fl.form.HandleSubmit(func(_ context.Context, values model.Values) error {
		payload = values
		return nil
	})
	if err := submit(ctx); err != nil {
		fl.reportErrors(ctx)
		return nil, err
	}
	return payload, nil
}

func (fl *Filler) prompt(ctx context.Context, def model.FieldDefinition) error {
	switch def.Kind {
	case model.KindSelect:
		return fl.promptSelect(ctx, def)
	case model.KindChip:
		return fl.promptChips(ctx, def)
	case model.KindArray:
		return fl.promptArray(ctx, def)
	default:
		return fl.promptText(ctx, def)
	}
}

func (fl *Filler) promptText(ctx context.Context, def model.FieldDefinition) error {
	cfg := InputConfig{
		Message:   promptMessage(def),
		Help:      def.Description,
		Validator: fl.validator(def),
	}
	if def.Mask != "" {
		cfg.Default = fl.form.MaskedValue(def.ID)
	} else if current, ok := fl.form.Value(def.ID); ok {
		cfg.Default = stringOf(current)
	}

	ask := fl.driver.Input
	if def.Secret {
		ask = fl.driver.Password
	}
	answer, err := ask(ctx, cfg)
	if err != nil {
		return err
	}
	if def.Mask != "" {
		// Store the raw digits; the display form is derived, never stored.
		answer = mask.Extract(answer)
	}
	return fl.form.SetValue(def.ID, answer, form.WithTouch(), form.WithValidation())
}

func (fl *Filler) promptSelect(ctx context.Context, def model.FieldDefinition) error {
	labels, byLabel := labelIndex(def.Options)
	cfg := SelectConfig{Message: promptMessage(def), Options: labels, Help: def.Description}
	if current, ok := fl.form.Value(def.ID); ok {
		if label := labelOf(def.Options, stringOf(current)); label != "" {
			cfg.Defaults = []string{label}
		}
	}
	answer, err := fl.driver.Select(ctx, cfg)
	if err != nil {
		return err
	}
	return fl.form.SetValue(def.ID, byLabel[answer], form.WithTouch(), form.WithValidation())
}

func (fl *Filler) promptChips(ctx context.Context, def model.FieldDefinition) error {
	labels, byLabel := labelIndex(def.Options)
	cfg := SelectConfig{Message: promptMessage(def), Options: labels, Help: def.Description}
	if current, ok := fl.form.Value(def.ID); ok {
		for _, item := range validation.AsList(current) {
			if label := labelOf(def.Options, stringOf(item)); label != "" {
				cfg.Defaults = append(cfg.Defaults, label)
			}
		}
	}
	answers, err := fl.driver.MultiSelect(ctx, cfg)
	if err != nil {
		return err
	}
	values := make([]string, 0, len(answers))
	for _, answer := range answers {
		values = append(values, byLabel[answer])
	}
	return fl.form.SetValue(def.ID, values, form.WithTouch(), form.WithValidation())
}

func (fl *Filler) promptArray(ctx context.Context, def model.FieldDefinition) error {
	handle, err := fl.form.ArrayField(def.ID)
	if err != nil {
		return err
	}
	for index := handle.Len(); ; index++ {
		if def.MaxItems > 0 && index >= def.MaxItems {
			return fl.driver.Info(ctx, fmt.Sprintf("%s holds at most %d entries", promptMessage(def), def.MaxItems))
		}
		more, err := fl.driver.Confirm(ctx, ConfirmConfig{
			Message: fmt.Sprintf("Add %s entry #%d?", promptMessage(def), index+1),
			Default: index < def.MinItems,
		})
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		item, err := def.ItemDefinition(index)
		if err != nil {
			return err
		}
		answer, err := fl.driver.Input(ctx, InputConfig{
			Message:   promptMessage(item),
			Help:      item.Description,
			Validator: fl.validator(item),
		})
		if err != nil {
			return err
		}
		if err := handle.Append(answer); err != nil {
			return err
		}
	}
}

// validator adapts the synchronous validation engine into a prompt-level
// check so bad input re-asks in place.
func (fl *Filler) validator(def model.FieldDefinition) func(string) error {
	return func(input string) error {
		candidate := any(input)
		if def.Mask != "" {
			candidate = mask.Extract(input)
		}
		if ferr := validation.Check(def, candidate, fl.form.Values()); ferr != nil {
			return ferr
		}
		return nil
	}
}

func (fl *Filler) reportErrors(ctx context.Context) {
	state := fl.form.State()
	for _, id := range fl.form.FieldIDs() {
		if ferr, ok := state.Errors[id]; ok {
			_ = fl.driver.Info(ctx, fmt.Sprintf("%s: %s", id, ferr.Message))
		}
	}
}

func promptMessage(def model.FieldDefinition) string {
	if label := strings.TrimSpace(def.Label); label != "" {
		return label
	}
	return def.ID
}

func labelIndex(options []model.Option) ([]string, map[string]string) {
	labels := make([]string, 0, len(options))
	byLabel := make(map[string]string, len(options))
	for _, opt := range options {
		label := opt.Label
		if label == "" {
			label = opt.Value
		}
		labels = append(labels, label)
		byLabel[label] = opt.Value
	}
	return labels, byLabel
}

func labelOf(options []model.Option, value string) string {
	for _, opt := range options {
		if opt.Value == value {
			if opt.Label != "" {
				return opt.Label
			}
			return opt.Value
		}
	}
	return ""
}

func stringOf(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
