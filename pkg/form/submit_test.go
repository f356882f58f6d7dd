package form

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// fill writes the minimum value set that makes signupConfig valid.
func fill(t *testing.T, f *Form) {
	t.Helper()
	for id, value := range map[string]any{
		"email":           "a@b.co",
		"password":        "hunter2",
		"confirmPassword": "hunter2",
		"topics":          []string{"go"},
	} {
		if err := f.SetValue(id, value); err != nil {
			t.Fatalf("SetValue(%s): %v", id, err)
		}
	}
}

func TestSubmitInvokesCallback(t *testing.T) {
	f := newForm(t)
	fill(t, f)

	var got model.Values
	submit := f.HandleSubmit(func(ctx context.Context, values model.Values) error {
		got = values
		return nil
	})
	if err := submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if got["email"] != "a@b.co" {
		t.Fatalf("payload = %v", got)
	}
	state := f.State()
	if state.IsSubmitting {
		t.Fatal("IsSubmitting should clear after the callback")
	}
	if !state.IsSubmitted || !state.IsSubmitSuccessful {
		t.Fatalf("submitted flags = %+v", state)
	}
	if state.SubmitCount != 1 {
		t.Fatalf("SubmitCount = %d", state.SubmitCount)
	}
}

func TestSubmitBlockedByValidation(t *testing.T) {
	f := newForm(t)
	// email left empty: required failure.

	called := false
	submit := f.HandleSubmit(func(ctx context.Context, values model.Values) error {
		called = true
		return nil
	})
	err := submit(context.Background())
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("err = %v, want ErrValidationFailed", err)
	}
	if called {
		t.Fatal("callback must not run on a blocked submit")
	}

	state := f.State()
	if state.Errors["email"].Code != validation.CodeRequired {
		t.Fatalf("errors = %+v", state.Errors)
	}
	if state.IsSubmitting {
		t.Fatal("IsSubmitting should clear on a blocked submit")
	}
	if !state.IsSubmitted || state.SubmitCount != 1 {
		t.Fatalf("attempt bookkeeping = %+v", state)
	}
}

func TestSubmitSkipsHiddenFields(t *testing.T) {
	f := newForm(t)
	fill(t, f)

	// companyName is required but hidden for personal accounts. Give it a
	// stale error first and check the submit clears it rather than blocking.
	if err := f.SetValue("accountType", "business"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if _, err := f.ValidateField("companyName"); err != nil {
		t.Fatalf("ValidateField: %v", err)
	}
	if err := f.SetValue("accountType", "personal"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}

	submit := f.HandleSubmit(func(ctx context.Context, values model.Values) error {
		return nil
	})
	if err := submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if state := f.State(); len(state.Errors) != 0 {
		t.Fatalf("stale hidden-field errors should be cleared, got %+v", state.Errors)
	}
}

func TestSubmitValidatesVisibleConditionalField(t *testing.T) {
	f := newForm(t)
	fill(t, f)
	if err := f.SetValue("accountType", "business"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}

	submit := f.HandleSubmit(func(ctx context.Context, values model.Values) error {
		return nil
	})
	err := submit(context.Background())
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("err = %v, want ErrValidationFailed", err)
	}
	state := f.State()
	if len(state.Errors) != 1 || state.Errors["companyName"].Code != validation.CodeRequired {
		t.Fatalf("errors = %+v", state.Errors)
	}
}

func TestSubmitFormValidation(t *testing.T) {
	f := newForm(t, WithFormValidation(func(values model.Values) map[string]string {
		if values["email"] == "taken@b.co" {
			return map[string]string{"email": "address already registered"}
		}
		return nil
	}))
	fill(t, f)
	if err := f.SetValue("email", "taken@b.co"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}

	submit := f.HandleSubmit(func(ctx context.Context, values model.Values) error {
		return nil
	})
	err := submit(context.Background())
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("err = %v, want ErrValidationFailed", err)
	}
	ferr := f.State().Errors["email"]
	if ferr.Code != validation.CodeForm || ferr.Message != "address already registered" {
		t.Fatalf("form-level error = %+v", ferr)
	}
}

func TestSubmitCallbackErrorPropagates(t *testing.T) {
	f := newForm(t)
	fill(t, f)

	sentinel := errors.New("upstream rejected")
	submit := f.HandleSubmit(func(ctx context.Context, values model.Values) error {
		return sentinel
	})
	err := submit(context.Background())
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want wrapped sentinel", err)
	}
	if !strings.Contains(err.Error(), "form: submit:") {
		t.Fatalf("err = %v, want package prefix", err)
	}
	state := f.State()
	if state.IsSubmitSuccessful || state.IsSubmitting {
		t.Fatalf("failure flags = %+v", state)
	}
}

func TestSubmitPayloadAppliesTransforms(t *testing.T) {
	cfg := model.Config{Rows: []model.Row{{Columns: []model.Column{
		{FieldDefinition: model.FieldDefinition{
			ID:   "email",
			Kind: model.KindText,
			Transform: model.Transform{
				Output: func(v any) any {
					s, _ := v.(string)
					return strings.ToLower(s)
				},
			},
		}},
	}}}}
	f, err := New(cfg, WithFieldTransformation())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := f.SetValue("email", "User@B.CO"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}

	var got model.Values
	submit := f.HandleSubmit(func(ctx context.Context, values model.Values) error {
		got = values
		return nil
	})
	if err := submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got["email"] != "user@b.co" {
		t.Fatalf("payload = %v", got)
	}
}

func TestSubmitDebounceLatestWins(t *testing.T) {
	f := newForm(t, WithSubmitDebounce(40*time.Millisecond))
	fill(t, f)

	var mu sync.Mutex
	var invoked int
	submit := f.HandleSubmit(func(ctx context.Context, values model.Values) error {
		mu.Lock()
		invoked++
		mu.Unlock()
		return nil
	})

	errs := make(chan error, 2)
	go func() { errs <- submit(context.Background()) }()
	time.Sleep(10 * time.Millisecond)
	go func() { errs <- submit(context.Background()) }()

	first, second := <-errs, <-errs
	var superseded, succeeded int
	for _, err := range []error{first, second} {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrSuperseded):
			superseded++
		default:
			t.Fatalf("unexpected submit error: %v", err)
		}
	}
	if succeeded != 1 || superseded != 1 {
		t.Fatalf("succeeded=%d superseded=%d", succeeded, superseded)
	}
	mu.Lock()
	defer mu.Unlock()
	if invoked != 1 {
		t.Fatalf("callback invoked %d times, want 1", invoked)
	}
}

func TestSubmitDebounceContextCancel(t *testing.T) {
	f := newForm(t, WithSubmitDebounce(time.Second))
	fill(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	submit := f.HandleSubmit(func(ctx context.Context, values model.Values) error {
		t.Fatal("callback must not run after cancellation")
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- submit(ctx) }()
	time.Sleep(10 * time.Millisecond)
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
