package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/feedback-analytics/internal/dataset"
	apperrors "github.com/SAP-F-2025/feedback-analytics/internal/errors"
)

// ValidationErrors is the error returned for failed tags, one entry per field
type ValidationErrors = apperrors.ValidationErrors

// contactEmailPattern is deliberately permissive; it only rejects obviously malformed addresses
var contactEmailPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)

// Validator wraps validator/v10 with the service's custom tags
type Validator struct {
	structValidator *validator.Validate
}

func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{structValidator: structValidator}
}

// Validate validates struct tags and converts failures to ValidationErrors
func (v *Validator) Validate(s interface{}) error {
	return fieldErrors(v.structValidator.Struct(s), "")
}

// Var validates a single value against a tag, reporting failures under field
func (v *Validator) Var(field string, value interface{}, tag string) error {
	return fieldErrors(v.structValidator.Var(value, tag), field)
}

// fieldErrors converts tag failures, naming them after field when one is given.
// Errors that are not tag failures, such as an invalid tag, pass through.
func fieldErrors(err error, field string) error {
	if err == nil {
		return nil
	}
	errs := apperrors.ToValidationErrors(err)
	if len(errs) == 0 {
		return err
	}
	if field != "" {
		for i := range errs {
			errs[i].Field = field
		}
	}
	return errs
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("notblank", validateNotBlank)
	validate.RegisterValidation("contact_email", validateContactEmail)
	validate.RegisterValidation("dataset_format", validateDatasetFormat)

	// Report JSON names in errors
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validateContactEmail(fl validator.FieldLevel) bool {
	return contactEmailPattern.MatchString(fl.Field().String())
}

// validateDatasetFormat accepts a filename with a supported extension
func validateDatasetFormat(fl validator.FieldLevel) bool {
	return dataset.FormatOf(fl.Field().String()) != ""
}
