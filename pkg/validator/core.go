package validator

import (
	"errors"
	"strings"
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string
	Message string
}

// Errors lists failed rules in the order they were applied.
type Errors []FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return ErrValidationFailed.Error()
	}

	var b strings.Builder
	b.WriteString(ErrValidationFailed.Error())
	for i, fe := range e {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(fe.Field)
		b.WriteString(": ")
		b.WriteString(fe.Message)
	}
	return b.String()
}

func (e Errors) Is(target error) bool {
	return target == ErrValidationFailed
}

func (e Errors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Fields returns failed field names in rule order, without duplicates.
func (e Errors) Fields() []string {
	var fields []string
	for i, fe := range e {
		if !e[:i].Has(fe.Field) {
			fields = append(fields, fe.Field)
		}
	}
	return fields
}

// Map returns the first message per field.
func (e Errors) Map() map[string]string {
	m := make(map[string]string, len(e))
	for _, fe := range e {
		if _, ok := m[fe.Field]; !ok {
			m[fe.Field] = fe.Message
		}
	}
	return m
}

// Rule checks one field.
type Rule struct {
	Field   string
	Message string
	Valid   func() bool
}

// Apply evaluates every rule and returns Errors for those that fail, or nil.
func Apply(rules ...Rule) error {
	var errs Errors
	for _, r := range rules {
		if !r.Valid() {
			errs = append(errs, FieldError{Field: r.Field, Message: r.Message})
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// As returns the Errors wrapped in err.
func As(err error) (Errors, bool) {
	var errs Errors
	if err == nil || !errors.As(err, &errs) {
		return nil, false
	}
	return errs, true
}
