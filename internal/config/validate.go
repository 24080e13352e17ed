package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("toml"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}()

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, describe(fe)))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%v is not one of [%s]", fe.Value(), fe.Param())
	case "min":
		return fmt.Sprintf("needs at least %s entries", fe.Param())
	case "startswith":
		return fmt.Sprintf("%v must start with %q", fe.Value(), fe.Param())
	case "gt":
		return fmt.Sprintf("%v must be > %s", fe.Value(), fe.Param())
	case "gte":
		return fmt.Sprintf("%v must be >= %s", fe.Value(), fe.Param())
	case "lte":
		return fmt.Sprintf("%v must be <= %s", fe.Value(), fe.Param())
	}
	return fmt.Sprintf("failed %s", fe.Tag())
}
