// Package validate wraps a shared go-playground validator that reports
// failures with json field names and English messages.
package validate

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/recurrence"
)

// ErrInvalid is wrapped by every error returned from Struct.
var ErrInvalid = errors.New("validation failed")

// FieldError names the first failing field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Message }

func (e *FieldError) Unwrap() error { return ErrInvalid }

var (
	once  sync.Once
	v     *validator.Validate
	trans ut.Translator
)

func get() (*validator.Validate, ut.Translator) {
	once.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ = uni.GetTranslator("en")

		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		// rrule=Field only checks the rule while the named bool field is set
		_ = v.RegisterValidation("rrule", func(fl validator.FieldLevel) bool {
			if name := fl.Param(); name != "" {
				gate := reflect.Indirect(fl.Parent()).FieldByName(name)
				if gate.IsValid() && gate.Kind() == reflect.Bool && !gate.Bool() {
					return true
				}
			}
			s := strings.TrimSpace(fl.Field().String())
			if s == "" {
				return true
			}
			_, err := recurrence.Parse(s)
			return err == nil
		})
		_ = v.RegisterTranslation("rrule", trans,
			func(ut ut.Translator) error {
				return ut.Add("rrule", "{0} must be a valid recurrence rule", true)
			},
			func(ut ut.Translator, fe validator.FieldError) string {
				msg, _ := ut.T("rrule", fe.Field())
				return msg
			},
		)
	})
	return v, trans
}

// Struct validates s using its `validate` tags. The returned error is a
// *FieldError describing the first failure.
func Struct(s any) error {
	val, tr := get()
	err := val.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &FieldError{Field: fe.Field(), Message: fe.Translate(tr)}
	}
	return &FieldError{Message: err.Error()}
}
