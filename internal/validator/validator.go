package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/oggyb/matchmaker/internal/db"
	svcErr "github.com/oggyb/matchmaker/internal/errors"
)

// Validator wraps go-playground/validator with the dating-specific rules.
type Validator struct {
	validate *validator.Validate
}

// New builds a validator with custom tags registered:
//   - is-gender: male | female | other
//   - is-show-gender: male | female | other | all
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register validation %q: %v", tag, err))
		}
	}
	mustRegister("is-gender", validateGender)
	mustRegister("is-show-gender", validateShowGender)

	return &Validator{validate: v}
}

// Validate checks obj and returns an ErrInvalidArgument-wrapped error that
// names every failing field.
func (v *Validator) Validate(obj any) error {
	err := v.validate.Struct(obj)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return svcErr.Invalid(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "is-gender":
		return field + " must be one of male, female, other"
	case "is-show-gender":
		return field + " must be one of male, female, other, all"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

func validateGender(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // 'required' handles empties
	}
	switch strings.ToLower(value) {
	case db.GenderMale, db.GenderFemale, db.GenderOther:
		return true
	default:
		return false
	}
}

func validateShowGender(fl validator.FieldLevel) bool {
	if strings.EqualFold(fl.Field().String(), db.ShowGenderAll) {
		return true
	}
	return validateGender(fl)
}
