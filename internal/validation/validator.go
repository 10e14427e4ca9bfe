// Package validation validates request payloads with go-playground/validator.
// A single validator instance is shared by every handler and carries the
// custom rules used by film and user payloads:
//
//	notblank     string contains at least one non-space character
//	nospaces     string contains no whitespace
//	cinemadate   YYYY-MM-DD date on or after 1895-12-28
//	notfuture    YYYY-MM-DD date not after today (UTC)
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the wire format of every date field.
const DateLayout = "2006-01-02"

// EarliestReleaseDate is the first public film screening.
var EarliestReleaseDate = time.Date(1895, time.December, 28, 0, 0, 0, 0, time.UTC)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	// now is replaced in tests.
	now = time.Now
)

// FieldError describes a single rejected field.
type FieldError struct {
	Field   string
	Tag     string
	Message string
}

// Error is returned by Struct when one or more fields are rejected.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		messages[i] = f.Message
	}
	return strings.Join(messages, "; ")
}

// Get returns the shared validator, building it on first use.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})

		mustRegister("notblank", notBlank)
		mustRegister("nospaces", noSpaces)
		mustRegister("cinemadate", cinemaDate)
		mustRegister("notfuture", notFuture)
	})
	return validate
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// Struct validates s and translates failures into an *Error.
func Struct(s any) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &Error{Fields: []FieldError{{Field: "unknown", Tag: "unknown", Message: err.Error()}}}
	}

	out := &Error{Fields: make([]FieldError, len(fieldErrs))}
	for i, fe := range fieldErrs {
		out.Fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: translate(fe),
		}
	}
	return out
}

var messages = map[string]string{
	"required":   "%s is required",
	"notblank":   "%s must not be blank",
	"nospaces":   "%s must not contain whitespace",
	"email":      "%s must be a valid email address",
	"cinemadate": "%s must not be earlier than 1895-12-28",
	"notfuture":  "%s must not be in the future",
}

func translate(fe validator.FieldError) string {
	if template, ok := messages[fe.Tag()]; ok {
		return fmt.Sprintf(template, fe.Field())
	}
	switch fe.Tag() {
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date in %s format", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func noSpaces(fl validator.FieldLevel) bool {
	return !strings.ContainsFunc(fl.Field().String(), unicode.IsSpace)
}

// cinemaDate and notFuture accept empty strings so they compose with omitempty
// and required.
func cinemaDate(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	if raw == "" {
		return true
	}
	d, err := time.Parse(DateLayout, raw)
	return err == nil && !d.Before(EarliestReleaseDate)
}

func notFuture(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	if raw == "" {
		return true
	}
	d, err := time.Parse(DateLayout, raw)
	if err != nil {
		return false
	}
	today := now().UTC().Truncate(24 * time.Hour)
	return !d.After(today)
}
