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

type ZoneValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewZoneValidator(log *logger.Logger) *ZoneValidator {
	return &ZoneValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *ZoneValidator) ValidateZone(zone *model.ParkingZone) error {
	return v.translate(v.validate.Struct(zone))
}

func (v *ZoneValidator) ValidateZoneUpdate(update *model.ParkingZoneUpdate) error {
	return v.translate(v.validate.Struct(update))
}

func (v *ZoneValidator) ValidateSpot(spot *model.ParkingSpot) error {
	return v.translate(v.validate.Struct(spot))
}

func (v *ZoneValidator) ValidateSpotUpdate(update *model.ParkingSpotUpdate) error {
	return v.translate(v.validate.Struct(update))
}

func (v *ZoneValidator) translate(err error) error {
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
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", fieldErr.Field(), fieldErr.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   fieldErr.Field(),
			Message: message,
		})
	}

	return validationErrors
}
