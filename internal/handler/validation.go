package handler

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/madadental/clinic-api/internal/model"
)

// RegisterValidators installs the custom binding validators referenced by the
// request models. Must run before the first request is bound.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return model.Currency(fl.Field().String()).Valid()
	})
}
