package service

import (
	"errors"
	"fmt"

	"github.com/nutritrack/nutritrack-go/internal/model"
	"github.com/nutritrack/nutritrack-go/internal/validation"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrDuplicateUser      = errors.New("user already exists")
	ErrProfileExists      = errors.New("profile already exists")
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
)

// ProfileExistsError is returned when a profile was already saved. It carries
// the stored profile and matches ErrProfileExists.
type ProfileExistsError struct {
	Profile model.Profile
}

func (e *ProfileExistsError) Error() string {
	return ErrProfileExists.Error()
}

func (e *ProfileExistsError) Is(target error) bool {
	return target == ErrProfileExists
}

// ValidationError reports a request field that failed a rule.
type ValidationError struct {
	Field string
	Rule  string
	Param string
}

func (e *ValidationError) Error() string {
	switch e.Rule {
	case "required":
		return fmt.Sprintf("%s is required", e.Field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", e.Field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", e.Field, e.Param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", e.Field, e.Param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", e.Field, e.Param)
	case "lte":
		return fmt.Sprintf("%s must be at most %s", e.Field, e.Param)
	case "unknown":
		return fmt.Sprintf("unknown field %s", e.Field)
	default:
		return fmt.Sprintf("%s is invalid", e.Field)
	}
}

func validate(v *validation.Validator, req any) error {
	fe, err := v.Struct(req)
	if err != nil {
		return err
	}
	if fe != nil {
		return &ValidationError{Field: fe.Field, Rule: fe.Rule, Param: fe.Param}
	}
	return nil
}
