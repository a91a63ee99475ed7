package validator

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var nikPattern = regexp.MustCompile(`^[0-9]{16}$`)

// Validator wraps go-playground validation with the platform's custom rules.
type Validator struct {
	validate *validator.Validate
}

// New builds a validator with all custom rules registered.
func New() *Validator {
	validate := validator.New()

	v := &Validator{validate: validate}
	v.registerRules()

	return v
}

// Validate validates struct tags and returns field-level errors.
func (v *Validator) Validate(s interface{}) ValidationErrors {
	err := v.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// Var validates a single value against a rule expression.
func (v *Validator) Var(field interface{}, tag string) error {
	return v.validate.Var(field, tag)
}

// registerRules registers the custom business rule validators
func (v *Validator) registerRules() {
	// Module weight bounds [0.1, 5.0]
	v.validate.RegisterValidation("module_weight", func(fl validator.FieldLevel) bool {
		weight := fl.Field().Float()
		return weight >= 0.1 && weight <= 5.0
	})

	// Sort order is asc/desc
	v.validate.RegisterValidation("sort_order", func(fl validator.FieldLevel) bool {
		order := strings.ToLower(fl.Field().String())
		return order == "" || order == "asc" || order == "desc"
	})

	// Indonesian national id: 16 digits
	v.validate.RegisterValidation("nik", func(fl validator.FieldLevel) bool {
		return nikPattern.MatchString(fl.Field().String())
	})

	// Question type enumeration
	v.validate.RegisterValidation("question_type", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "multiple_choice", "true_false", "rating_scale", "text":
			return true
		}
		return false
	})

	// Module sequence starts at 1
	v.validate.RegisterValidation("module_sequence", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() >= 1
	})
}
