package render

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	appvalidate "walletcore/internal/service/validate"
)

func configureValidator(validate *validator.Validate) {
	_ = validate.RegisterValidation("iban", validateIBAN)
	validate.RegisterTagNameFunc(useJSONTagNames)
}

func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

func validateIBAN(fl validator.FieldLevel) bool {
	return appvalidate.IBAN(fl.Field().String()) == nil
}
