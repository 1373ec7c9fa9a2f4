package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/trip-planner/internal/pkg/errors"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate - валидация структуры, ошибки приводятся к INVALID_REQUEST
func Validate(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.ErrInvalidRequest
	}

	fields := make([]string, 0, len(validationErrs))
	details := make(map[string]interface{}, len(validationErrs))
	for _, fe := range validationErrs {
		fields = append(fields, fe.Field())
		details[fe.Field()] = fmt.Sprintf("failed on '%s'", fe.Tag())
	}

	return errors.ErrInvalidRequest.
		WithMessage("Invalid request parameters: " + strings.Join(fields, ", ")).
		WithDetails(details)
}

// GetValidator - получить валидатор для кастомной конфигурации
func GetValidator() *validator.Validate {
	return validate
}
