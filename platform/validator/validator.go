// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import "github.com/go-playground/validator/v10"

// Validator wraps the go-playground validator so handlers depend on a small
// surface that can be swapped in tests.
type Validator struct {
	v *validator.Validate
}

// New creates a new Validator instance.
func New() *Validator {
	return &Validator{
		v: validator.New(),
	}
}

// Struct validates a struct based on its validation tags. Request DTOs carry
// the tags; handlers call this right after query binding.
func (val *Validator) Struct(s interface{}) error {
	return val.v.Struct(s)
}
