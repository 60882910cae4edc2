package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// MinPasswordLen is the shortest password the strength check accepts.
const MinPasswordLen = 6

var (
	once       sync.Once
	standalone = validator.New()
)

// Init configures the global validator used by Gin's binding.
// - Uses JSON tag names in errors.
// - Registers the strongpwd tag and a few aliases.
func Init() {
	once.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			register(v)
		}
	})
}

func register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	_ = v.RegisterValidation("strongpwd", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})
	v.RegisterAlias("nonzero", "required")
}

// IsStrongPassword: at least MinPasswordLen characters with an uppercase
// letter, a lowercase letter and a digit.
func IsStrongPassword(p string) bool {
	if len([]rune(p)) < MinPasswordLen {
		return false
	}
	var upper, lower, digit bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

// IsEmail uses the same rule as the email binding tag.
func IsEmail(s string) bool {
	return s != "" && standalone.Var(s, "email") == nil
}

// ToDetails converts validation/binding errors into a map[field]message suitable for additionalInfo.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	// Invalid JSON payloads
	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}

func formatFieldError(fe validator.FieldError) string {
	tag := fe.Tag()
	param := fe.Param()

	switch tag {
	case "required", "nonzero":
		return "is required"
	case "email":
		return "must be a valid email"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "numeric":
		return "must be numeric"
	case "len":
		return fmt.Sprintf("must be exactly %s characters long", param)
	case "min":
		if isNumberKind(fe.Kind()) {
			return "must be at least " + param
		}
		return "must be at least " + param + " characters long"
	case "max":
		if isNumberKind(fe.Kind()) {
			return "must be at most " + param
		}
		return "must be at most " + param + " characters long"
	case "eqfield":
		return "must match " + lowerFirst(param)
	case "nefield":
		return "must differ from " + lowerFirst(param)
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(param), ", ")
	case "strongpwd":
		return fmt.Sprintf("must be at least %d characters with uppercase, lowercase and a number", MinPasswordLen)
	default:
		if param != "" {
			return fmt.Sprintf("validation failed for '%s' with parameter '%s'", tag, param)
		}
		return fmt.Sprintf("validation failed for '%s'", tag)
	}
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// eqfield params carry the Go field name; reply with the json-ish spelling.
func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
