package commands

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/taskboard-dev/taskboard/internal/cli/client"
)

// Form structs mirror what each view collects before calling the API. The
// field names in messages are the flag names.

type loginForm struct {
	Email    string `validate:"required,email" flag:"email"`
	Password string `validate:"required" flag:"password"`
}

type registerForm struct {
	Name     string `validate:"required" flag:"name"`
	Email    string `validate:"required,email" flag:"email"`
	Password string `validate:"required,min=6" flag:"password"`
}

type projectForm struct {
	Title       string `validate:"required" flag:"title"`
	Description string `validate:"required" flag:"description"`
}

type taskForm struct {
	Title       string `validate:"required" flag:"title"`
	Description string `validate:"required" flag:"description"`
	Status      string `validate:"required,taskstatus" flag:"status"`
	Deadline    string `validate:"required,datetime=2006-01-02" flag:"deadline"`
	Project     string `validate:"required" flag:"project"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("flag")
	})
	_ = v.RegisterValidation("taskstatus", func(fl validator.FieldLevel) bool {
		return client.TaskStatus(fl.Field().String()).Valid()
	})
	return v
}

// validateForm checks form and turns validation failures into one readable error
func validateForm(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fieldMessage(fe))
	}
	return errors.New(strings.Join(messages, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", fe.Field())
	case "taskstatus":
		names := make([]string, len(client.Statuses))
		for i, s := range client.Statuses {
			names[i] = string(s)
		}
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.Join(names, ", "))
	default:
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}
