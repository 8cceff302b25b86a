package auth

import "unicode/utf8"

// FieldPhoneNumber is the only field of the sign-in form
const FieldPhoneNumber = "phoneNumber"

// Messages surfaced to the user
const (
	MsgRequired    = "Phone number is required"
	MsgFetchFailed = "Failed to fetch API key. Please try again."
	MsgNotFound    = "This phone number is not registered."
)

// FormValues holds the transient values of the sign-in form
type FormValues struct {
	PhoneNumber string
}

// FieldError is a validation failure bound to a single field
type FieldError struct {
	Field   string
	Rule    string
	Message string
}

func (e FieldError) Error() string {
	return e.Message
}

// Result is the outcome of validating a form
type Result struct {
	Errors []FieldError
}

// OK reports whether the form passed validation
func (r Result) OK() bool {
	return len(r.Errors) == 0
}

// FieldError returns the first error for a field, or nil
func (r Result) FieldError(field string) *FieldError {
	for i := range r.Errors {
		if r.Errors[i].Field == field {
			return &r.Errors[i]
		}
	}
	return nil
}

// Rule is a single field constraint
type Rule struct {
	Name    string
	Message string
	Check   func(string) bool
}

// MinLength requires at least n characters
func MinLength(n int, message string) Rule {
	return Rule{
		Name:    "min",
		Message: message,
		Check: func(v string) bool {
			return utf8.RuneCountInString(v) >= n
		},
	}
}

// phoneRules are evaluated in order; the first failure per field wins
var phoneRules = []Rule{
	MinLength(1, MsgRequired),
}

// Validate checks the form values before submission
func Validate(v FormValues) Result {
	var res Result
	for _, rule := range phoneRules {
		if !rule.Check(v.PhoneNumber) {
			res.Errors = append(res.Errors, FieldError{
				Field:   FieldPhoneNumber,
				Rule:    rule.Name,
				Message: rule.Message,
			})
			break
		}
	}
	return res
}

// ValidatePhoneNumber adapts Validate to single-field input widgets
func ValidatePhoneNumber(s string) error {
	res := Validate(FormValues{PhoneNumber: s})
	if fe := res.FieldError(FieldPhoneNumber); fe != nil {
		return *fe
	}
	return nil
}
