package catalog

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/studiousvault/core"
)

var (
	materialTypeTag  = "materialtype"
	materialTypeText = "type must be one of: " + strings.Join(AllTypes, ", ")
)

// InitValidators registers the catalog validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(materialTypeTag, materialTypeValidation)
	core.RegisterCustomTranslation(validate, translator, materialTypeTag, materialTypeText)
}

func materialTypeValidation(fl validator.FieldLevel) bool {
	return IsValidType(fl.Field().String())
}
