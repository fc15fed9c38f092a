package validator

import (
	"errors"
	"fmt"
	"strings"

	"parkhub/pkg/logger"
	"parkhub/pkg/model"
	"parkhub/pkg/sanitizer"

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

type VehicleValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewVehicleValidator(log *logger.Logger) *VehicleValidator {
	v := validator.New()

	if err := v.RegisterValidation("license_plate", validateLicensePlate); err != nil {
		log.Fatal("Failed to register 'license_plate' validator",
			"error", err,
		)
	}

	log.Info("Vehicle validator initialized successfully")

	return &VehicleValidator{
		validate: v,
		logger:   log,
	}
}

// validateLicensePlate expects the plate already normalized by the service.
func validateLicensePlate(fl validator.FieldLevel) bool {
	plate, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return sanitizer.ValidPlate(plate)
}

func (v *VehicleValidator) Validate(vehicle *model.Vehicle) error {
	return v.translate(v.validate.Struct(vehicle))
}

func (v *VehicleValidator) ValidateUpdate(update *model.VehicleUpdate) error {
	return v.translate(v.validate.Struct(update))
}

func (v *VehicleValidator) translate(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	var validationErrors ValidationErrors
	for _, fieldErr := range validationErrs {
		message := fieldErr.Error()

		switch fieldErr.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", fieldErr.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", fieldErr.Field(), fieldErr.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", fieldErr.Field(), fieldErr.Param())
		case "uuid4":
			message = fmt.Sprintf("%s must be a valid UUID", fieldErr.Field())
		case "license_plate":
			message = fmt.Sprintf("%s must be 4-12 letters and digits", fieldErr.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   fieldErr.Field(),
			Message: message,
		})
	}

	return validationErrors
}
