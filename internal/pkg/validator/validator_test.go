package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string   `json:"name" validate:"required,max=5"`
	Color string   `json:"color" validate:"omitempty,hexcolor"`
	Users []string `json:"assigned_to" validate:"min=1"`
	Kind  string   `json:"kind" validate:"omitempty,oneof='IT Support' Other"`
}

func TestValidateStructUsesJSONNames(t *testing.T) {
	err := ValidateStruct(sample{Name: "too long name", Color: "blue"})
	require.Error(t, err)

	var failures ValidationErrors
	require.ErrorAs(t, err, &failures)

	fields := map[string]string{}
	for _, f := range failures {
		fields[f.Field] = f.Tag
	}
	assert.Equal(t, "max", fields["name"])
	assert.Equal(t, "hexcolor", fields["color"])
	assert.Equal(t, "min", fields["assigned_to"])
}

func TestValidateStructAcceptsQuotedOneOf(t *testing.T) {
	assert.NoError(t, ValidateStruct(sample{Name: "ok", Users: []string{"a"}, Kind: "IT Support"}))
	assert.Error(t, ValidateStruct(sample{Name: "ok", Users: []string{"a"}, Kind: "IT"}))
}

func TestRegisterValidation(t *testing.T) {
	type withCustom struct {
		Code string `json:"code" validate:"upper_only"`
	}
	require.NoError(t, RegisterValidation("upper_only", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for _, r := range s {
			if r < 'A' || r > 'Z' {
				return false
			}
		}
		return true
	}))

	assert.NoError(t, ValidateStruct(withCustom{Code: "ABC"}))
	assert.Error(t, ValidateStruct(withCustom{Code: "abc"}))
}

func TestValidationErrorsMessage(t *testing.T) {
	assert.Equal(t, "validation failed", ValidationErrors{}.Error())
	assert.Equal(t, "title failed on required", Field("title", "required").Error())
	assert.Equal(t, "name failed on max=5", ValidationErrors{{Field: "name", Tag: "max", Param: "5"}}.Error())
}
