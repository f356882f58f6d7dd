package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-formstate/pkg/model"
)

func TestCheckRequired(t *testing.T) {
	def := model.FieldDefinition{ID: "email", Kind: model.KindText, Label: "Email", Required: true}

	cases := []struct {
		name  string
		value any
		fails bool
	}{
		{"nil", nil, true},
		{"empty string", "", true},
		{"blank string", "   ", true},
		{"value", "a@b.co", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Check(def, tc.value, model.Values{})
			if tc.fails {
				if err == nil || err.Code != CodeRequired {
					t.Fatalf("expected required error, got %+v", err)
				}
				if !strings.Contains(err.Message, "Email") {
					t.Fatalf("required message should use the label, got %q", err.Message)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %+v", err)
			}
		})
	}
}

func TestCheckOptionalEmptyPasses(t *testing.T) {
	def := model.FieldDefinition{
		ID:         "nickname",
		Kind:       model.KindText,
		Validation: model.Validation{Pattern: `^[a-z]+$`},
	}
	if err := Check(def, "", model.Values{}); err != nil {
		t.Fatalf("optional empty value should pass, got %+v", err)
	}
}

func TestCheckListBounds(t *testing.T) {
	def := model.FieldDefinition{
		ID:       "topics",
		Kind:     model.KindChip,
		MinItems: 2,
		MaxItems: 3,
	}

	cases := []struct {
		name string
		list any
		code string
	}{
		{"under min", []string{"go"}, CodeMinItems},
		{"blank entries ignored", []string{"go", "  "}, CodeMinItems},
		{"within bounds", []string{"go", "sql"}, ""},
		{"over max", []any{"a", "b", "c", "d"}, CodeMaxItems},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Check(def, tc.list, model.Values{})
			if tc.code == "" {
				if err != nil {
					t.Fatalf("unexpected error: %+v", err)
				}
				return
			}
			if err == nil || err.Code != tc.code {
				t.Fatalf("expected %s, got %+v", tc.code, err)
			}
		})
	}
}

// Bounds checks run before and instead of scalar checks for list fields.
func TestCheckListSkipsScalarChecks(t *testing.T) {
	def := model.FieldDefinition{
		ID:         "topics",
		Kind:       model.KindChip,
		Validation: model.Validation{Pattern: `^\d+$`},
	}
	if err := Check(def, []string{"not-a-number"}, model.Values{}); err != nil {
		t.Fatalf("list field should skip the pattern check, got %+v", err)
	}
}

func TestCheckListRunsCustomRule(t *testing.T) {
	def := model.FieldDefinition{
		ID:   "topics",
		Kind: model.KindChip,
		Validation: model.Validation{
			Custom: func(value any, values model.Values) error {
				return errors.New("no duplicates")
			},
		},
	}
	err := Check(def, []string{"go", "go"}, model.Values{})
	if err == nil || err.Code != CodeCustom {
		t.Fatalf("custom rule should still run for list fields, got %+v", err)
	}
}

func TestCheckMaskedDigitCount(t *testing.T) {
	def := model.FieldDefinition{
		ID:    "phone",
		Kind:  model.KindText,
		Label: "Phone",
		Mask:  "(###) ###-####",
		// A pattern is declared but the mask digit count supersedes it.
		Validation: model.Validation{Pattern: `^$`},
	}

	if err := Check(def, "123", model.Values{}); err == nil || err.Code != CodeDigitCount {
		t.Fatalf("expected digit_count error, got %+v", err)
	}
	if err := Check(def, "1234567890", model.Values{}); err != nil {
		t.Fatalf("full digit count should pass, got %+v", err)
	}
	// Empty is only an error when required.
	if err := Check(def, "", model.Values{}); err != nil {
		t.Fatalf("optional empty masked value should pass, got %+v", err)
	}
}

func TestCheckPattern(t *testing.T) {
	def := model.FieldDefinition{
		ID:   "code",
		Kind: model.KindText,
		Validation: model.Validation{
			Pattern: `^[A-Z]{3}$`,
			Message: "use three capital letters",
		},
	}
	err := Check(def, "nope", model.Values{})
	if err == nil || err.Code != CodePattern {
		t.Fatalf("expected pattern error, got %+v", err)
	}
	if err.Message != "use three capital letters" {
		t.Fatalf("declared message should win, got %q", err.Message)
	}
	if err := Check(def, "ABC", model.Values{}); err != nil {
		t.Fatalf("matching value should pass, got %+v", err)
	}
}

func TestMatchesField(t *testing.T) {
	def := model.FieldDefinition{
		ID:   "confirmPassword",
		Kind: model.KindText,
		Validation: model.Validation{
			Dependencies: []string{"password"},
			Custom:       MatchesField("password", "passwords do not match"),
		},
	}
	values := model.Values{"password": "abc12345"}

	if err := Check(def, "abc12345", values); err != nil {
		t.Fatalf("matching confirmation should pass, got %+v", err)
	}
	err := Check(def, "xyz99999", values)
	if err == nil || err.Code != CodeMismatch {
		t.Fatalf("expected mismatch error, got %+v", err)
	}
	if err.Message != "passwords do not match" {
		t.Fatalf("message = %q", err.Message)
	}
}

func TestCustomRule(t *testing.T) {
	def := model.FieldDefinition{
		ID:   "username",
		Kind: model.KindText,
		Validation: model.Validation{
			Custom: func(value any, _ model.Values) error {
				if value == "admin" {
					return errors.New("username is reserved")
				}
				return nil
			},
		},
	}
	err := Check(def, "admin", model.Values{})
	if err == nil || err.Code != CodeCustom || err.Message != "username is reserved" {
		t.Fatalf("expected custom error, got %+v", err)
	}
	if err := Check(def, "someone", model.Values{}); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
}

// Required short-circuits everything, including custom rules.
func TestCheckOrder(t *testing.T) {
	called := false
	def := model.FieldDefinition{
		ID:       "email",
		Kind:     model.KindText,
		Required: true,
		Validation: model.Validation{
			Custom: func(any, model.Values) error {
				called = true
				return nil
			},
		},
	}
	if err := Check(def, "", model.Values{}); err == nil || err.Code != CodeRequired {
		t.Fatalf("expected required error, got %+v", err)
	}
	if called {
		t.Fatal("custom rule must not run once required fails")
	}
}

func TestNonEmptyCount(t *testing.T) {
	cases := []struct {
		name   string
		value  any
		expect int
	}{
		{"nil", nil, 0},
		{"strings with blanks", []string{"a", "", " ", "b"}, 2},
		{"anys", []any{"x", nil, ""}, 1},
		{"scalar", "x", 1},
		{"empty scalar", "", 0},
	}
	for _, tc := range cases {
		if got := NonEmptyCount(tc.value); got != tc.expect {
			t.Fatalf("%s: NonEmptyCount = %d, want %d", tc.name, got, tc.expect)
		}
	}
}

func TestAsListCopies(t *testing.T) {
	src := []any{"a", "b"}
	out := AsList(src)
	out[0] = "mutated"
	if src[0] != "a" {
		t.Fatal("AsList must not alias the source slice")
	}
	if got := AsList("scalar"); len(got) != 1 || got[0] != "scalar" {
		t.Fatalf("AsList(scalar) = %+v", got)
	}
}
