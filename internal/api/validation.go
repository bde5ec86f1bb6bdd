package api

import (
	"sync" // One-time registration

	"eshop/internal/domain" // Order statuses

	"github.com/gin-gonic/gin/binding"       // Gin binding engine
	"github.com/go-playground/validator/v10" // Struct validation
	"github.com/sirupsen/logrus"             // Logging library
)

var registerOnce sync.Once

// registerValidators adds the custom binding rules used by request structs
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return // Custom validator engine, nothing to register
		}
		err := v.RegisterValidation("order_status", func(fl validator.FieldLevel) bool {
			return domain.OrderStatus(fl.Field().String()).Valid()
		})
		if err != nil {
			logrus.Fatalf("failed to register order_status validator: %v", err)
		}
	})
}
