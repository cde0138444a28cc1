package branding

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/plinth-cms/plinth/internal/apierr"
)

// hexColorRegex validates #RRGGBB color values.
var hexColorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

var (
	validate *validator.Validate
	once     sync.Once
)

// Validator returns the shared validator with the brandcolor tag registered
// and field names reported by their JSON tag.
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("brandcolor", func(fl validator.FieldLevel) bool {
			return hexColorRegex.MatchString(fl.Field().String())
		})
	})
	return validate
}

// ValidateColor validates that a color string is a #RRGGBB hex color.
func ValidateColor(color string) error {
	if !hexColorRegex.MatchString(color) {
		return fmt.Errorf("invalid hex color %q: must be #RRGGBB format", color)
	}
	return nil
}

// ValidateURL validates that a URL string is an http or https URL.
// Empty strings are allowed (means use default).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return nil
	}
	u, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme %q: must be http or https", u.Scheme)
	}
	return nil
}

// validateStruct runs struct-tag validation and converts failures into the
// apierr taxonomy. A failing brandcolor tag wins over other failures so the
// caller sees INVALID_COLOR_CODE.
func validateStruct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apierr.Validation(err.Error())
	}

	fields := make([]apierr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		name := fieldPath(fe)
		if fe.Tag() == "brandcolor" {
			return apierr.InvalidColor(name, fmt.Sprint(fe.Value()))
		}
		fields = append(fields, apierr.FieldError{Field: name, Message: describe(fe)})
	}
	return apierr.Validation("invalid request", fields...)
}

// fieldPath strips the top-level struct name from a validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of [" + fe.Param() + "]"
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "fqdn":
		return "must be a valid domain name"
	default:
		return "failed on the '" + fe.Tag() + "' rule"
	}
}
