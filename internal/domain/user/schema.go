package user

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"golang.org/x/text/unicode/norm"
)

const (
	NameMinLen = 2
	NameMaxLen = 50

	// matches the email column width
	EmailMaxLen = 320
)

var (
	emailRe         = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe         = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	phoneSeparators = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")

	fieldLabels = map[string]string{
		"firstName":   "First name",
		"lastName":    "Last name",
		"email":       "Email address",
		"phoneNumber": "Phone number",
		"gender":      "Gender",
	}

	schemaValidator, schemaTranslator = newSchemaValidator()
)

// schema carries the declarative constraints of a user record.
type schema struct {
	FirstName   string `json:"firstName" validate:"required,min=2,max=50,personname"`
	LastName    string `json:"lastName" validate:"required,min=2,max=50,personname"`
	Email       string `json:"email" validate:"required,max=320,emailshape"`
	PhoneNumber string `json:"phoneNumber" validate:"required,phone"`
	Gender      string `json:"gender" validate:"required,oneof=M F"`
}

type (
	Violation struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	}
	// Violations lists the field-level schema failures of a candidate record.
	Violations []Violation
)

func (v Violations) Error() string {
	msgs := make([]string, len(v))
	for i, vi := range v {
		msgs[i] = vi.Message
	}
	return strings.Join(msgs, "; ")
}

// Validate checks u against the user schema. It returns nil for a valid record.
// Email uniqueness is enforced by the store, not here.
func Validate(u User) Violations {
	err := schemaValidator.Struct(schema{
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Gender:      u.Gender,
	})
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Violations{{Message: err.Error()}}
	}

	out := make(Violations, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, Violation{
			Field:   fe.Field(),
			Message: fe.Translate(schemaTranslator),
		})
	}

	return out
}

// Normalize trims user input and brings email and phone into their stored form.
func Normalize(u User) User {
	u.FirstName = norm.NFC.String(strings.TrimSpace(u.FirstName))
	u.LastName = norm.NFC.String(strings.TrimSpace(u.LastName))
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.PhoneNumber = phoneSeparators.Replace(strings.TrimSpace(u.PhoneNumber))
	u.Gender = strings.TrimSpace(u.Gender)

	return u
}

// NormalizePatch applies Normalize to the fields a patch sets.
func NormalizePatch(p Patch) Patch {
	n := Normalize(p.Apply(User{}))
	set := func(dst **string, v string) {
		if *dst != nil {
			*dst = &v
		}
	}
	set(&p.FirstName, n.FirstName)
	set(&p.LastName, n.LastName)
	set(&p.Email, n.Email)
	set(&p.PhoneNumber, n.PhoneNumber)
	set(&p.Gender, n.Gender)

	return p
}

func newSchemaValidator() (*validator.Validate, ut.Translator) {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	for tag, fn := range map[string]validator.Func{
		"personname": func(fl validator.FieldLevel) bool { return isPersonName(fl.Field().String()) },
		"emailshape": func(fl validator.FieldLevel) bool { return emailRe.MatchString(fl.Field().String()) },
		"phone": func(fl validator.FieldLevel) bool {
			return phoneRe.MatchString(phoneSeparators.Replace(fl.Field().String()))
		},
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, found := uni.GetTranslator("en")
	if !found {
		panic("translator en not found")
	}
	if err := en_translations.RegisterDefaultTranslations(v, trans); err != nil {
		panic(err)
	}

	for tag, text := range map[string]string{
		"required":   "{0} is required",
		"min":        "{0} must be at least {1} characters long",
		"max":        "{0} cannot exceed {1} characters",
		"personname": "{0} must only contain letters and spaces",
		"emailshape": "Please enter a valid email address",
		"phone":      "Please enter a valid phone number",
		"oneof":      "{0} must be either 'M' or 'F'",
	} {
		tag, text := tag, text
		err := v.RegisterTranslation(tag, trans, func(ut ut.Translator) error {
			return ut.Add(tag, text, true)
		}, func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, label(fe.Field()), fe.Param())
			return t
		})
		if err != nil {
			panic(err)
		}
	}

	return v, trans
}

func label(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	return field
}

func isPersonName(s string) bool {
	if strings.TrimSpace(s) == "" {
		return false
	}
	prevLetter := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			prevLetter = true
		case unicode.IsMark(r) && prevLetter:
			// combining accents left after NFC
		case r == ' ':
			prevLetter = false
		default:
			return false
		}
	}
	return true
}
