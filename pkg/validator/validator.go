package validator

import (
	"fmt"
	"reflect"
	"strings"

	"go-inventory-ledger/pkg/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ErrorResponse struct {
	FailedField string `json:"field"`
	Tag         string `json:"tag"`
	Value       string `json:"value,omitempty"`
}

var validate = validator.New()

func init() {
	// Report json names so errors match the request body.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	validate.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		switch id := fl.Field().Interface().(type) {
		case uuid.UUID:
			return id != uuid.Nil
		case *uuid.UUID:
			return id != nil && *id != uuid.Nil
		}
		return false
	})
}

func ValidateStruct(data interface{}) []*ErrorResponse {
	var errors []*ErrorResponse
	err := validate.Struct(data)
	if err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return []*ErrorResponse{{FailedField: "body", Tag: "invalid", Value: err.Error()}}
		}
		for _, err := range verrs {
			errors = append(errors, &ErrorResponse{
				FailedField: err.Field(),
				Tag:         err.Tag(),
				Value:       err.Param(),
			})
		}
	}
	return errors
}

// Validate returns the first failure as a VALIDATION_ERROR.
func Validate(data interface{}) error {
	errs := ValidateStruct(data)
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	msg := fmt.Sprintf("field '%s' failed on '%s'", first.FailedField, first.Tag)
	if first.Value != "" {
		msg += "=" + first.Value
	}
	return apperror.Validation(msg, first.FailedField)
}
