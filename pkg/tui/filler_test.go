package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/model"
)

// scriptDriver replays canned answers and records every prompt it served.
type scriptDriver struct {
	inputs    []string
	passwords []string
	selects   []string
	multis    [][]string
	confirms  []bool

	inputCfgs  []InputConfig
	selectCfgs []SelectConfig
	infos      []string
}

func (d *scriptDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	d.inputCfgs = append(d.inputCfgs, cfg)
	if len(d.inputs) == 0 {
		return "", errors.New("script exhausted: input")
	}
	out := d.inputs[0]
	d.inputs = d.inputs[1:]
	return out, nil
}

func (d *scriptDriver) Password(_ context.Context, cfg InputConfig) (string, error) {
	d.inputCfgs = append(d.inputCfgs, cfg)
	if len(d.passwords) == 0 {
		return "", errors.New("script exhausted: password")
	}
	out := d.passwords[0]
	d.passwords = d.passwords[1:]
	return out, nil
}

func (d *scriptDriver) Select(_ context.Context, cfg SelectConfig) (string, error) {
	d.selectCfgs = append(d.selectCfgs, cfg)
	if len(d.selects) == 0 {
		return "", errors.New("script exhausted: select")
	}
	out := d.selects[0]
	d.selects = d.selects[1:]
	return out, nil
}

func (d *scriptDriver) MultiSelect(_ context.Context, cfg SelectConfig) ([]string, error) {
	d.selectCfgs = append(d.selectCfgs, cfg)
	if len(d.multis) == 0 {
		return nil, errors.New("script exhausted: multiselect")
	}
	out := d.multis[0]
	d.multis = d.multis[1:]
	return out, nil
}

func (d *scriptDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	if len(d.confirms) == 0 {
		return false, nil
	}
	out := d.confirms[0]
	d.confirms = d.confirms[1:]
	return out, nil
}

func (d *scriptDriver) Info(_ context.Context, msg string) error {
	d.infos = append(d.infos, msg)
	return nil
}

func fillerConfig() model.Config {
	return model.Config{
		ID: "signup",
		Rows: []model.Row{
			{Columns: []model.Column{
				{FieldDefinition: model.FieldDefinition{
					ID: "email", Kind: model.KindText, Label: "Email", Required: true,
				}},
				{FieldDefinition: model.FieldDefinition{
					ID: "phone", Kind: model.KindText, Label: "Phone", Mask: "(###) ###-####",
				}},
			}},
			{Columns: []model.Column{
				{FieldDefinition: model.FieldDefinition{
					ID: "password", Kind: model.KindText, Secret: true, Required: true,
				}},
				{FieldDefinition: model.FieldDefinition{
					ID: "accountType", Kind: model.KindSelect, Default: "personal",
					Options: []model.Option{
						{Value: "personal", Label: "Personal"},
						{Value: "business", Label: "Business"},
					},
				}},
			}},
			{Columns: []model.Column{
				{FieldDefinition: model.FieldDefinition{
					ID: "topics", Kind: model.KindChip,
					Options: []model.Option{
						{Value: "go", Label: "Go"},
						{Value: "sql", Label: "SQL"},
					},
				}},
				{FieldDefinition: model.FieldDefinition{
					ID: "aliases", Kind: model.KindArray, Label: "Aliases", MaxItems: 2,
					Template: &model.FieldDefinition{Kind: model.KindText, Label: "Alias"},
				}},
			}},
			{Columns: []model.Column{
				{FieldDefinition: model.FieldDefinition{
					ID: "companyName", Kind: model.KindText, Required: true,
					Condition: &model.Condition{
						DependsOn: []string{"accountType"},
						When:      `accountType == "business"`,
					},
				}},
			}},
		},
	}
}

func TestFillerRun(t *testing.T) {
	f, err := form.New(fillerConfig())
	if err != nil {
		t.Fatalf("form.New: %v", err)
	}

	driver := &scriptDriver{
		inputs:    []string{"a@b.co", "(123) 456-7890", "ada"},
		passwords: []string{"hunter2"},
		selects:   []string{"Personal"},
		multis:    [][]string{{"Go", "SQL"}},
		confirms:  []bool{true, false},
	}

	payload, err := NewFiller(f, driver).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Masked input is stored as raw digits, selections as values not labels.
	want := model.Values{
		"email":       "a@b.co",
		"phone":       "1234567890",
		"password":    "hunter2",
		"accountType": "personal",
		"topics":      []any{"go", "sql"},
		"aliases":     []any{"ada"},
	}
	got := model.Values{}
	for k, v := range payload {
		if list, ok := v.([]string); ok {
			anyList := make([]any, len(list))
			for i, item := range list {
				anyList[i] = item
			}
			got[k] = anyList
			continue
		}
		got[k] = v
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}

	// Hidden companyName was never prompted: three Input calls (email, phone,
	// alias item) plus one Password.
	if len(driver.inputCfgs) != 4 {
		t.Fatalf("input prompts = %d", len(driver.inputCfgs))
	}
	state := f.State()
	if !state.IsSubmitted || !state.IsSubmitSuccessful {
		t.Fatalf("state = %+v", state)
	}
}

func TestFillerSelectDefaultsUseLabels(t *testing.T) {
	f, err := form.New(fillerConfig())
	if err != nil {
		t.Fatalf("form.New: %v", err)
	}
	driver := &scriptDriver{
		inputs:    []string{"a@b.co", ""},
		passwords: []string{"hunter2"},
		selects:   []string{"Personal"},
		multis:    [][]string{{"Go"}},
	}
	if _, err := NewFiller(f, driver).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var accountCfg *SelectConfig
	for i := range driver.selectCfgs {
		if len(driver.selectCfgs[i].Options) == 2 && driver.selectCfgs[i].Options[0] == "Personal" {
			accountCfg = &driver.selectCfgs[i]
			break
		}
	}
	if accountCfg == nil {
		t.Fatalf("account select prompt not captured: %+v", driver.selectCfgs)
	}
	if len(accountCfg.Defaults) != 1 || accountCfg.Defaults[0] != "Personal" {
		t.Fatalf("select default = %v, want declared default's label", accountCfg.Defaults)
	}
}

func TestFillerArrayStopsAtMaxItems(t *testing.T) {
	f, err := form.New(fillerConfig())
	if err != nil {
		t.Fatalf("form.New: %v", err)
	}
	driver := &scriptDriver{
		inputs:    []string{"a@b.co", "", "one", "two"},
		passwords: []string{"hunter2"},
		selects:   []string{"Personal"},
		multis:    [][]string{{"Go"}},
		confirms:  []bool{true, true, true},
	}
	if _, err := NewFiller(f, driver).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got, _ := f.Value("aliases"); len(got.([]any)) != 2 {
		t.Fatalf("aliases = %v", got)
	}
	if len(driver.infos) != 1 {
		t.Fatalf("expected the max-items notice, got %v", driver.infos)
	}
}

func TestFillerPromptErrorAborts(t *testing.T) {
	f, err := form.New(fillerConfig())
	if err != nil {
		t.Fatalf("form.New: %v", err)
	}
	driver := &scriptDriver{} // empty script: first Input fails
	if _, err := NewFiller(f, driver).Run(context.Background()); err == nil {
		t.Fatal("expected prompt error to propagate")
	}
}

func TestFillerReportsSubmitErrors(t *testing.T) {
	// Per-field prompts pass; a whole-form validator rejects at submit time,
	// which the filler reports through the driver.
	cfg := model.Config{Rows: []model.Row{{Columns: []model.Column{
		{FieldDefinition: model.FieldDefinition{ID: "handle", Kind: model.KindText, Label: "Handle"}},
	}}}}
	f, err := form.New(cfg, form.WithFormValidation(func(values model.Values) map[string]string {
		return map[string]string{"handle": "handle already in use"}
	}))
	if err != nil {
		t.Fatalf("form.New: %v", err)
	}

	driver := &scriptDriver{inputs: []string{"ada"}}
	_, runErr := NewFiller(f, driver).Run(context.Background())
	if !errors.Is(runErr, form.ErrValidationFailed) {
		t.Fatalf("err = %v, want ErrValidationFailed", runErr)
	}
	if len(driver.infos) != 1 || !strings.Contains(driver.infos[0], "handle already in use") {
		t.Fatalf("reported errors = %v", driver.infos)
	}
}
