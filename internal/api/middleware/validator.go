package middleware

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators 向 Gin 的校验引擎注册自定义规则
//   - hhmm:    "HH:mm" 24 小时制时间
//   - weekday: 1（周一）至 7（周日）
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin 校验引擎不是 validator/v10")
	}
	if err := v.RegisterValidation("hhmm", validateHHMM); err != nil {
		return err
	}
	return v.RegisterValidation("weekday", validateWeekday)
}

func validateHHMM(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 5 {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

func validateWeekday(fl validator.FieldLevel) bool {
	d := fl.Field().Int()
	return d >= 1 && d <= 7
}
