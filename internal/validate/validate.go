// Package validate checks RPC inputs with struct tags and converts failures
// into VALIDATION errors with per-field messages.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode/utf16"

	"github.com/go-playground/validator/v10"

	"github.com/emojiblog/emojiblog/internal/apperr"
)

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		mustRegister(v, "emoji", func(fl validator.FieldLevel) bool {
			return IsEmoji(fl.Field().String())
		})
		mustRegister(v, "u16min", func(fl validator.FieldLevel) bool {
			return UTF16Len(fl.Field().String()) >= paramInt(fl)
		})
		mustRegister(v, "u16max", func(fl validator.FieldLevel) bool {
			return UTF16Len(fl.Field().String()) <= paramInt(fl)
		})
		instance = v
	})
	return instance
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

func paramInt(fl validator.FieldLevel) int {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		panic(fmt.Sprintf("invalid %s parameter %q", fl.GetTag(), fl.Param()))
	}
	return n
}

// UTF16Len returns the length of s in UTF-16 code units
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// Struct validates s, returning an *apperr.Error of kind VALIDATION on failure
func Struct(s interface{}) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Wrap(apperr.KindInternal, "validation failed", err)
	}
	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		name := fieldPath(fe)
		fields[name] = append(fields[name], message(fe))
	}
	return apperr.Validation(fields)
}

// fieldPath drops the top-level struct name from the namespace
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "emoji":
		return "must contain only emoji"
	case "u16min":
		return fmt.Sprintf("must contain at least %s character(s)", fe.Param())
	case "u16max":
		return fmt.Sprintf("must contain at most %s character(s)", fe.Param())
	case "max":
		return fmt.Sprintf("must contain at most %s item(s)", fe.Param())
	default:
		return fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
}

// Decode unmarshals RPC params into dst. Missing params decode as an empty object.
func Decode(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperr.Validation(map[string][]string{"input": {decodeMessage(err)}})
	}
	return nil
}

func decodeMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("%s must be %s", typeErr.Field, typeErr.Type.String())
	}
	return "must be a JSON object"
}
