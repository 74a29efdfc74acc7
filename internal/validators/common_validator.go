package validators

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterValidation("object_id", validateObjectID)
	validate.RegisterValidation("coordinates", validateCoordinates)
	validate.RegisterValidation("rating_value", validateRatingValue)
	validate.RegisterValidation("fare_amount", validateFareAmount)
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var messages []string
	for _, err := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

func ValidateStruct(s interface{}) ValidationErrors {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var errors ValidationErrors
	for _, err := range err.(validator.ValidationErrors) {
		errors = append(errors, ValidationError{
			Field:   strings.ToLower(err.Field()),
			Tag:     err.Tag(),
			Message: messageForTag(err),
		})
	}
	return errors
}

func messageForTag(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "this field is required"
	case "object_id":
		return "must be a valid object ID"
	case "coordinates":
		return "must be valid GPS coordinates"
	case "rating_value":
		return "rating must be between 1.0 and 5.0"
	case "fare_amount":
		return "fare must be a positive amount"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", err.Param())
	default:
		return fmt.Sprintf("failed %s validation", err.Tag())
	}
}

func validateObjectID(fl validator.FieldLevel) bool {
	_, err := primitive.ObjectIDFromHex(fl.Field().String())
	return err == nil
}

func validateCoordinates(fl validator.FieldLevel) bool {
	value := fl.Field().Float()
	switch fl.Param() {
	case "lon":
		return value >= -180 && value <= 180
	default:
		return value >= -90 && value <= 90
	}
}

func validateRatingValue(fl validator.FieldLevel) bool {
	rating := fl.Field().Float()
	return rating >= 1.0 && rating <= 5.0
}

func validateFareAmount(fl validator.FieldLevel) bool {
	fare := fl.Field().Float()
	return fare > 0 && fare < 100000
}
