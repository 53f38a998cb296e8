package user

import (
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/studiousvault/core"
)

// Roles
const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// Redirect targets
const (
	EntryPath     = "/"
	DashboardPath = "/dashboard"
)

var AllRoles = []string{RoleStudent, RoleAdmin}

type User struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	Role         string `json:"role" yaml:"role"`
	RegNumber    string `json:"reg_number,omitempty" yaml:"reg_number,omitempty"` // students only
	PasswordHash []byte `json:"-" yaml:"-"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// CheckPassword compares pwd against the stored hash.
// Identities without a hash (seeded fixtures) accept any password.
func (u *User) CheckPassword(pwd string) error {
	if len(u.PasswordHash) == 0 {
		return nil
	}
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }

// SameIdentity reports whether both users describe the same roster entry.
func (u User) SameIdentity(o User) bool {
	return u.ID == o.ID && u.Name == o.Name && u.Role == o.Role && u.RegNumber == o.RegNumber
}

// Credentials are submitted at login. Identifier is a registration number (students) or a name (admins).
type Credentials struct {
	Identifier string `json:"identifier" form:"identifier" validate:"required,notblank_"`
	Password   string `json:"password" form:"password" validate:"required"`
}

// Validate leaves Identifier untouched: it must match a roster entry exactly.
func (c *Credentials) Validate(validate *validator.Validate) error {
	return validate.Struct(c)
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name      string `json:"name" form:"name" validate:"required,notblank_"`
	RegNumber string `json:"reg_number" form:"reg_number"`
	Password  string `json:"password" form:"password" validate:"required"`
	Role      string `json:"role" form:"role" validate:"required,role"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
	nu.RegNumber = core.CleanString(nu.RegNumber)
	if nu.Role == RoleAdmin {
		nu.RegNumber = "" // admins have no registration number
	}

	if err := validate.Struct(nu); err != nil {
		return err
	}
	if nu.Role == RoleStudent && nu.RegNumber == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "reg_number", Error: requiredText})
	}
	return nil
}

// Result is the outcome of a successful auth operation.
type Result struct {
	User     *User  `json:"user,omitempty"`
	Redirect string `json:"redirect"`
	Message  string `json:"message"`
}
