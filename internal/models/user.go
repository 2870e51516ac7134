package models

import (
	"fmt"
	"strings"
)

// Role is the kind of account a user holds in the lab
type Role string

const (
	RoleStudent Role = "student" // Runs experiments, shows up in rankings
	RoleTeacher Role = "teacher" // Reviews results of the class
)

// DefaultUserName is assigned to users provisioned on first login without a name.
const DefaultUserName = "User"

// User is a lab participant, identified by email.
type User struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
	Role  Role   `json:"role" yaml:"role"`
}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleStudent || r == RoleTeacher
}

// ParseRole maps a role name to a Role. Matching is case-insensitive and
// also accepts the Portuguese labels used by the classroom dashboard
// ("aluno", "professor").
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "student", "aluno":
		return RoleStudent, nil
	case "teacher", "professor":
		return RoleTeacher, nil
	default:
		return "", fmt.Errorf("unknown role %q (valid: student, teacher)", s)
	}
}
