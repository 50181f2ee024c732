package domain

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sufield/wabbit/internal/core/errors"
)

var (
	loginPattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9._@-]*[a-zA-Z0-9])?$`)
	rolePattern  = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)
)

// Validator wraps go-playground/validator with wabbit-specific tags.
type Validator struct {
	validator *validator.Validate
}

// NewValidator creates a validator with the custom wabbit tags registered.
func NewValidator() *Validator {
	validate := validator.New()

	_ = validate.RegisterValidation("login", validateLogin)
	_ = validate.RegisterValidation("role", validateRole)
	_ = validate.RegisterValidation("name_params", validateNameParams)
	_ = validate.RegisterValidation("action", validateAction)
	validate.RegisterCustomTypeFunc(nameParamsValue, NameParams{})

	return &Validator{validator: validate}
}

// Validate validates a struct. Field failures are returned joined, each as
// an *errors.ValidationError.
func (v *Validator) Validate(s interface{}) error {
	return convert(v.validator.Struct(s))
}

// ValidateVar validates a single variable using the given tag.
func (v *Validator) ValidateVar(field interface{}, tag string) error {
	return convert(v.validator.Var(field, tag))
}

func convert(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return err
	}
	out := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, &errors.ValidationError{
			Field:   fe.Namespace(),
			Value:   redactValue(fe),
			Message: customErrorMessage(fe),
		})
	}
	return stderrors.Join(out...)
}

func redactValue(fe validator.FieldError) interface{} {
	if strings.EqualFold(fe.StructField(), "Password") {
		return redacted
	}
	return fe.Value()
}

func validateLogin(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true // handled by 'required'
	}
	return len(s) <= 128 && loginPattern.MatchString(s)
}

func validateRole(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	return len(s) <= 64 && rolePattern.MatchString(s)
}

// nameParamsValue lets tags on NameParams fields see the String form.
func nameParamsValue(v reflect.Value) interface{} {
	if np, ok := v.Interface().(NameParams); ok {
		return np.String()
	}
	return nil
}

func validateNameParams(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	np, err := ParseNameParams(s)
	return err == nil && np.Manageable() == nil
}

func validateAction(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := ParseAction(s)
	return err == nil
}

func customErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "login":
		return "must start and end with an alphanumeric character and contain only alphanumerics, '.', '_', '@' or '-'"
	case "role":
		return "must be lowercase, start with a letter and contain only letters, digits, '_' or '-'"
	case "name_params":
		return "must be a plugin id of the form name or name/param#param, without ',' or '='"
	case "action":
		return "must have the form resource:verb"
	default:
		return fmt.Sprintf("validation failed for tag '%s'", fe.Tag())
	}
}

// DefaultValidator is the shared validator instance.
var DefaultValidator = NewValidator()

// ValidateStruct is a convenience function using DefaultValidator.
func ValidateStruct(s interface{}) error {
	return DefaultValidator.Validate(s)
}
