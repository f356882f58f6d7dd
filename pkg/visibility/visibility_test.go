package visibility

import (
	"strings"
	"testing"
)

func TestCompileAndEval(t *testing.T) {
	values := map[string]any{
		"accountType": "business",
		"newsletter":  true,
		"seats":       float64(3),
		"name":        "",
		"tags":        []string{"a"},
	}

	cases := []struct {
		rule   string
		expect bool
	}{
		{"", true},
		{"newsletter", true},
		{"name", false},
		{"missing", false},
		{"tags", true},
		{`accountType == "business"`, true},
		{`accountType == "personal"`, false},
		{`accountType != "personal"`, true},
		{"seats == 3", true},
		{"seats != 3", false},
		{"newsletter == true", true},
		{"newsletter == false", false},
		{"missing == null", true},
		{`accountType == "business" && newsletter`, true},
		{`accountType == "personal" || seats == 3`, true},
		{"!newsletter", false},
		{`!(accountType == "personal")`, true},
		{`accountType == business`, true}, // bare literal compares as string
	}

	for _, tc := range cases {
		t.Run(tc.rule, func(t *testing.T) {
			pred, err := Compile(tc.rule)
			if err != nil {
				t.Fatalf("Compile(%q): %v", tc.rule, err)
			}
			if got := pred(values); got != tc.expect {
				t.Fatalf("eval(%q) = %v, want %v", tc.rule, got, tc.expect)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	cases := []struct {
		rule    string
		wantErr string
	}{
		{"a = b", `"=="`},
		{"a & b", `"&&"`},
		{"a | b", `"||"`},
		{`a == "unterminated`, "unterminated"},
		{"(a", `")"`},
		{"a ==", "literal"},
		{"== b", "identifier"},
		{"a b", "unexpected token"},
	}

	for _, tc := range cases {
		t.Run(tc.rule, func(t *testing.T) {
			if _, err := Compile(tc.rule); err == nil {
				t.Fatalf("Compile(%q) succeeded, want error containing %q", tc.rule, tc.wantErr)
			} else if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not contain %q", err, tc.wantErr)
			}
		})
	}
}

func TestLookupDottedPath(t *testing.T) {
	values := map[string]any{
		"cta.headline": "exact wins",
		"address": map[string]any{
			"city": "Springfield",
		},
	}

	if got, ok := Lookup(values, "cta.headline"); !ok || got != "exact wins" {
		t.Fatalf("exact dotted key lookup = %v (%v)", got, ok)
	}
	if got, ok := Lookup(values, "address.city"); !ok || got != "Springfield" {
		t.Fatalf("traversal lookup = %v (%v)", got, ok)
	}
	if _, ok := Lookup(values, "address.zip"); ok {
		t.Fatal("missing nested key should not resolve")
	}
}

func TestMustCompilePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("MustCompile should panic on a bad rule")
		}
	}()
	MustCompile("a &")
}
