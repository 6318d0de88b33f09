package children

import (
	"fmt"
	"strings"

	"github.com/Tabitha-Home/THMS-CLIENT/transport"

	"github.com/badoux/checkmail"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// writeValidation covers the closed classification sets. The type system
// cannot enforce them alone, so the write path rejects out of set values
// before they ever reach the backend.
type writeValidation struct {
	Gender        string `json:"gender" validate:"omitempty,oneof=Male Female"`
	CurrentStatus string `json:"current_status" validate:"omitempty,oneof=Active Exited Transferred Adopted Inactive"`
	HealthStatus  string `json:"health_status" validate:"omitempty,oneof=Excellent Good Fair Poor"`
	GuardianEmail string `json:"guardian_email"`
}

// ValidateRecord checks a transformed payload against the closed enum sets
// and the guardian email format. Failures come back in the same normalized
// shape a backend 400 would, with one message per offending field.
func ValidateRecord(payload map[string]interface{}) error {
	record := writeValidation{}
	if err := decodeLoose(payload, &record); err != nil {
		return transport.NewValidationError(transport.FieldError{Message: "Invalid record payload."})
	}

	fieldErrors := []transport.FieldError{}

	if err := validate.Struct(record); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return transport.NewValidationError(transport.FieldError{Message: "Invalid record payload."})
		}
		for _, fieldError := range validationErrors {
			fieldErrors = append(fieldErrors, transport.FieldError{
				Field:   wireName(fieldError.Field()),
				Message: fmt.Sprintf("%s must be one of: %s", wireName(fieldError.Field()), allowedValues(fieldError.Field())),
			})
		}
	}

	if record.GuardianEmail != "" {
		if err := checkmail.ValidateFormat(record.GuardianEmail); err != nil {
			fieldErrors = append(fieldErrors, transport.FieldError{
				Field:   "guardian_email",
				Message: "guardian_email must be a valid email address",
			})
		}
	}

	if len(fieldErrors) > 0 {
		return transport.NewValidationError(fieldErrors...)
	}
	return nil
}

func wireName(structField string) string {
	switch structField {
	case "Gender":
		return "gender"
	case "CurrentStatus":
		return "current_status"
	case "HealthStatus":
		return "health_status"
	case "GuardianEmail":
		return "guardian_email"
	}
	return strings.ToLower(structField)
}

func allowedValues(structField string) string {
	switch structField {
	case "Gender":
		return strings.Join(Genders, ", ")
	case "CurrentStatus":
		return strings.Join(CurrentStatuses, ", ")
	case "HealthStatus":
		return strings.Join(HealthStatuses, ", ")
	}
	return ""
}
