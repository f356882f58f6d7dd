package form

import "github.com/goliatone/go-formstate/pkg/validation"

// State is the enhanced form-level status record. Flag invariants: IsValid
// holds iff Errors is empty; IsDirty holds iff DirtyFields is non-empty.
type State struct {
	IsDirty            bool `json:"isDirty"`
	IsValid            bool `json:"isValid"`
	IsSubmitting       bool `json:"isSubmitting"`
	IsSubmitted        bool `json:"isSubmitted"`
	IsSubmitSuccessful bool `json:"isSubmitSuccessful"`
	IsValidating       bool `json:"isValidating"`
	IsLoading          bool `json:"isLoading"`
	SubmitCount        int  `json:"submitCount"`

	DirtyFields      map[string]bool                  `json:"dirtyFields"`
	TouchedFields    map[string]bool                  `json:"touchedFields"`
	Errors           map[string]validation.FieldError `json:"errors"`
	ValidatingFields map[string]bool                  `json:"validatingFields"`
	LoadingFields    map[string]bool                  `json:"loadingFields"`
}

func newState() State {
	return State{
		IsValid:          true,
		DirtyFields:      map[string]bool{},
		TouchedFields:    map[string]bool{},
		Errors:           map[string]validation.FieldError{},
		ValidatingFields: map[string]bool{},
		LoadingFields:    map[string]bool{},
	}
}

func (s State) clone() State {
	out := s
	out.DirtyFields = cloneFlags(s.DirtyFields)
	out.TouchedFields = cloneFlags(s.TouchedFields)
	out.ValidatingFields = cloneFlags(s.ValidatingFields)
	out.LoadingFields = cloneFlags(s.LoadingFields)
	out.Errors = make(map[string]validation.FieldError, len(s.Errors))
	for id, err := range s.Errors {
		out.Errors[id] = err
	}
	return out
}

// reconcile re-derives the aggregate flags from the per-field maps. The
// form-level IsLoading flag is owned by SetLoading and left alone here beyond
// per-field loading.
func (s *State) reconcile(formLoading bool) {
	s.IsDirty = len(s.DirtyFields) > 0
	s.IsValid = len(s.Errors) == 0
	s.IsValidating = len(s.ValidatingFields) > 0
	s.IsLoading = formLoading || len(s.LoadingFields) > 0
}

func cloneFlags(src map[string]bool) map[string]bool {
	out := make(map[string]bool, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
