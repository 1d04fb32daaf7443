package constants

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

type contextKey string

const (
	PoolKey   contextKey = "pool"
	TxKey     contextKey = "tx"
	LoggerKey contextKey = "logger"
)

// phoneRx matches a normalized phone: optional leading "+", 1-15 digits.
var phoneRx = regexp.MustCompile(`^\+?[0-9]{1,15}$`)

var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRx.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}
