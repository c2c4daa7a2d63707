package models

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// DiscordInvitePattern matches the invite links a clan may register
var DiscordInvitePattern = regexp.MustCompile(`^https://discord\.gg/([A-Za-z0-9-]+)/?$`)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator with the clan specific rules registered
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("clantag", func(fl validator.FieldLevel) bool {
			return Tag(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("location", func(fl validator.FieldLevel) bool {
			_, err := ParseLocation(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("discordinvite", func(fl validator.FieldLevel) bool {
			return DiscordInvitePattern.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// ValidateStruct runs the validator and converts failures to a ValidationError
func ValidateStruct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fieldName(fe),
			Reason:  fe.Tag(),
			Message: fieldMessage(fe),
		})
	}
	return out
}

// fieldName keeps the slice index for dive errors, e.g. tags[2]
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		}
		return fmt.Sprintf("cannot exceed %s characters", fe.Param())
	case "unique":
		return "must not contain duplicates"
	case "url":
		return "must be a valid URL"
	case "clantag":
		return fmt.Sprintf("unknown tag %q", fe.Value())
	case "location":
		return fmt.Sprintf("unknown location %q", fe.Value())
	case "discordinvite":
		return "must be a Discord invite link like https://discord.gg/<code>"
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}
