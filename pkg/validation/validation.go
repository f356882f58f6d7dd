// Package validation implements the synchronous field validation engine. The
// checks run in a fixed order and short-circuit on the first failure:
// required, list bounds, select emptiness, masked digit count, pattern, then
// the caller-supplied custom rule. Cross-field constraints are declarative
// (Validation.Dependencies plus a custom rule such as MatchesField); the
// engine has no field-name special cases.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/goliatone/go-formstate/pkg/mask"
	"github.com/goliatone/go-formstate/pkg/model"
)

// Check validates candidate against the field's declared constraints. It is
// pure: the full value set is only read, never written. A nil return means
// the value passed every synchronous check; async rules run elsewhere.
func Check(def model.FieldDefinition, candidate any, values model.Values) *FieldError {
	empty := IsEmpty(candidate)
	if def.IsRequired() && empty {
		return fieldError(CodeRequired, requiredMessage(def))
	}

	if def.IsList() {
		count := NonEmptyCount(candidate)
		if def.MinItems > 0 && count < def.MinItems {
			return fieldError(CodeMinItems, fmt.Sprintf("%s requires at least %d item(s)", displayName(def), def.MinItems))
		}
		if def.MaxItems > 0 && count > def.MaxItems {
			return fieldError(CodeMaxItems, fmt.Sprintf("%s allows at most %d item(s)", displayName(def), def.MaxItems))
		}
		// List fields skip the scalar checks once bounds hold.
		return runCustom(def, candidate, values)
	}

	if def.Kind == model.KindSelect {
		if empty && def.IsRequired() {
			return fieldError(CodeRequired, requiredMessage(def))
		}
		return runCustom(def, candidate, values)
	}

	if def.Mask != "" {
		digits := mask.Digits(asString(candidate))
		if want := mask.PlaceholderCount(def.Mask); len(digits) > 0 && len(digits) != want {
			return fieldError(CodeDigitCount, fmt.Sprintf("%s must have %d digits", displayName(def), want))
		}
		// The digit-count check supersedes the pattern for masked fields.
		return runCustom(def, candidate, values)
	}

	if def.Validation.Pattern != "" && !empty {
		re, err := pattern(def.Validation.Pattern)
		if err != nil {
			return fieldError(CodePattern, fmt.Sprintf("invalid pattern for %s: %v", displayName(def), err))
		}
		if !re.MatchString(asString(candidate)) {
			msg := def.Validation.Message
			if msg == "" {
				msg = fmt.Sprintf("%s has an invalid format", displayName(def))
			}
			return fieldError(CodePattern, msg)
		}
	}

	return runCustom(def, candidate, values)
}

func runCustom(def model.FieldDefinition, candidate any, values model.Values) *FieldError {
	if def.Validation.Custom == nil {
		return nil
	}
	err := def.Validation.Custom(candidate, values)
	if err == nil {
		return nil
	}
	var ferr *FieldError
	if errors.As(err, &ferr) {
		return ferr
	}
	return fieldError(CodeCustom, err.Error())
}

// MatchesField builds a custom rule asserting equality with another field,
// the declarative replacement for confirmation inputs such as
// password/confirmPassword pairs. Declare the other field in
// Validation.Dependencies so edits there revalidate this one.
func MatchesField(other, message string) model.Rule {
	return func(value any, values model.Values) error {
		if asString(value) == asString(values[other]) {
			return nil
		}
		if message == "" {
			message = fmt.Sprintf("value does not match %s", other)
		}
		return fieldError(CodeMismatch, message)
	}
}

// IsEmpty reports whether a value counts as missing for the required check:
// nil, a blank string, or a list with no non-blank entries.
func IsEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []string, []any:
		return NonEmptyCount(v) == 0
	default:
		return false
	}
}

// NonEmptyCount counts the list entries that survive blank filtering. Scalar
// values count as a single entry when non-empty.
func NonEmptyCount(value any) int {
	count := 0
	switch v := value.(type) {
	case nil:
		return 0
	case []string:
		for _, item := range v {
			if strings.TrimSpace(item) != "" {
				count++
			}
		}
	case []any:
		for _, item := range v {
			if !IsEmpty(item) {
				count++
			}
		}
	default:
		if !IsEmpty(v) {
			count = 1
		}
	}
	return count
}

// AsList coerces a stored value into a generic slice, copying so callers can
// mutate the result without aliasing the store.
func AsList(value any) []any {
	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		return append([]any(nil), v...)
	case []string:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = item
		}
		return out
	default:
		return []any{v}
	}
}

func requiredMessage(def model.FieldDefinition) string {
	return fmt.Sprintf("%s is required", displayName(def))
}

func displayName(def model.FieldDefinition) string {
	if label := strings.TrimSpace(def.Label); label != "" {
		return label
	}
	return def.ID
}

func asString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

var (
	patternMu    sync.RWMutex
	patternCache = map[string]*regexp.Regexp{}
)

// pattern compiles and caches regular expressions; field definitions are
// static per form instance so the cache stays small.
func pattern(expr string) (*regexp.Regexp, error) {
	patternMu.RLock()
	re, ok := patternCache[expr]
	patternMu.RUnlock()
	if ok {
		return re, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	patternMu.Lock()
	patternCache[expr] = re
	patternMu.Unlock()
	return re, nil
}
