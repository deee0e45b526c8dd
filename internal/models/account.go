package models

import "time"

type Role string

const (
	RoleDirector Role = "director"
	RoleTeacher  Role = "teacher"
	RoleStudent  Role = "student"
	RoleGuardian Role = "guardian"
)

// Roles lists every valid role, in display order.
var Roles = []Role{RoleDirector, RoleTeacher, RoleStudent, RoleGuardian}

func ValidRole(r Role) bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

type Account struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
