package orders

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators installs order-specific binding rules on gin's
// validator engine. Called once at router setup.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterValidation("paymentmethod", func(fl validator.FieldLevel) bool {
		return PaymentMethod(fl.Field().String()).IsValid()
	})
}
