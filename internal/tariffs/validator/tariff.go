package validator

import (
	"errors"
	"fmt"
	"strings"

	"parkhub/pkg/logger"
	"parkhub/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type TariffValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewTariffValidator(log *logger.Logger) *TariffValidator {
	return &TariffValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *TariffValidator) Validate(tariff *model.TariffPlan) error {
	if err := v.validate.Struct(tariff); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}

	if !tariff.PricePerHour.IsPositive() {
		return ValidationErrors{
			ValidationError{Field: "PricePerHour", Message: "price_per_hour must be positive"},
		}
	}

	if tariff.PricePerDay != nil && !tariff.PricePerDay.IsPositive() {
		return ValidationErrors{
			ValidationError{Field: "PricePerDay", Message: "price_per_day must be positive when set"},
		}
	}

	return nil
}

func (v *TariffValidator) ValidateUpdate(update *model.TariffPlanUpdate) error {
	if err := v.validate.Struct(update); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return translateValidationErrors(validationErrs)
		}
		return err
	}

	if update.PricePerHour != nil && !update.PricePerHour.IsPositive() {
		return ValidationErrors{
			ValidationError{Field: "PricePerHour", Message: "price_per_hour must be positive"},
		}
	}

	if update.PricePerDay != nil && !update.PricePerDay.IsPositive() {
		return ValidationErrors{
			ValidationError{Field: "PricePerDay", Message: "price_per_day must be positive when set"},
		}
	}

	return nil
}

func translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "uuid4":
			message = fmt.Sprintf("%s must be a valid UUID", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
