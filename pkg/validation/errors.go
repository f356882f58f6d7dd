package validation

// KindValidation tags every field error surfaced by the engine; callers can
// rely on it when mapping server errors onto the same shape via SetError.
const KindValidation = "validation"

// Error codes, one per failure class in the engine's taxonomy.
const (
	CodeRequired   = "required"
	CodeMinItems   = "min_items"
	CodeMaxItems   = "max_items"
	CodeDigitCount = "digit_count"
	CodePattern    = "pattern"
	CodeMismatch   = "mismatch"
	CodeCustom     = "custom"
	CodeAsync      = "async"
	CodeForm       = "form"
)

// FieldError is the per-field validation failure stored in the form's error
// map. It implements error so custom rules can return one directly to control
// the code attached to their failure.
type FieldError struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Message
}

func fieldError(code, message string) *FieldError {
	return &FieldError{Kind: KindValidation, Code: code, Message: message}
}
