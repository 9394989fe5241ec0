package api

import (
	"alcyxob/gym-app/internal/domain"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// registerValidators adds the custom binding tags used by request DTOs.
//
//	Status domain.EquipmentStatus `binding:"required,equipstatus"`
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("equipstatus", func(fl validator.FieldLevel) bool {
			return domain.EquipmentStatus(fl.Field().String()).Valid()
		})
	})
}
