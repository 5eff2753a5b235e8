package auth

import "strings"

type Role string

const (
	RoleResident Role = "resident"
	RoleGuard    Role = "guard"
)

// ParseRole normaliza user_type/role. Desconocido => "".
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleResident:
		return RoleResident
	case RoleGuard:
		return RoleGuard
	default:
		return ""
	}
}

// Claims representa la sesión: quién es, qué rol tiene y el bearer para reenviar.
type Claims struct {
	UserID string
	Role   Role
	Token  string
}
