package domain

import (
	"github.com/go-playground/validator/v10"

	pkgvalidator "taskdesk/internal/pkg/validator"
)

func init() {
	if err := pkgvalidator.RegisterValidation("complaint_type", func(fl validator.FieldLevel) bool {
		return ComplaintType(fl.Field().String()).IsValid()
	}); err != nil {
		panic(err)
	}
}
