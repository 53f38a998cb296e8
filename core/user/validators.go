package user

import (
	"fmt"
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/studiousvault/core"
)

var (
	roleTag  = "role"
	roleText = "role must be one of: " + strings.Join(AllRoles, ", ")

	requiredText = "this field is required"
)

// InitValidators registers the user validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)
}

func roleValidation(fl validator.FieldLevel) bool {
	role := fl.Field().String()
	for _, r := range AllRoles {
		if role == r {
			return true
		}
	}
	return false
}

// RegNumberPattern matches registration numbers: "RA" followed by exactly N digits.
type RegNumberPattern struct {
	digits int
	re     *regexp.Regexp
}

func NewRegNumberPattern(digits int) RegNumberPattern {
	return RegNumberPattern{
		digits: digits,
		re:     regexp.MustCompile(fmt.Sprintf(`^RA\d{%d}$`, digits)),
	}
}

func (p RegNumberPattern) Match(s string) bool { return p.re.MatchString(s) }

func (p RegNumberPattern) Digits() int { return p.digits }

// FormatText is shown to users whose registration number does not match.
func (p RegNumberPattern) FormatText() string {
	return fmt.Sprintf("Invalid registration number format. It should start with RA followed by %d digits", p.digits)
}
