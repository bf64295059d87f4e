package utils

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct runs the shared validator instance against the request
// DTO. The instance is safe for concurrent use.
func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}
