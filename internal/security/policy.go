package security

import (
	"fmt"
	"regexp"
)

// PasswordPolicy selects the accepted password shape. The school issues
// six-digit PINs by default; "min6" allows free-form passwords of at
// least six characters instead.
type PasswordPolicy string

const (
	PolicyPIN6 PasswordPolicy = "pin6"
	PolicyMin6 PasswordPolicy = "min6"
)

var pin6Pattern = regexp.MustCompile(`^[0-9]{6}$`)

func ParsePasswordPolicy(s string) (PasswordPolicy, error) {
	switch PasswordPolicy(s) {
	case PolicyPIN6, PolicyMin6:
		return PasswordPolicy(s), nil
	}
	return "", fmt.Errorf("unknown password policy %q", s)
}

func (p PasswordPolicy) Validate(password string) error {
	switch p {
	case PolicyMin6:
		if len(password) < 6 {
			return fmt.Errorf("password must be at least 6 characters")
		}
	default:
		if !pin6Pattern.MatchString(password) {
			return fmt.Errorf("password must be exactly 6 numeric digits")
		}
	}
	return nil
}
