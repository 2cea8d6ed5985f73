package model

import "fmt"

// Role is the closed set of account roles issued by the identity provider.
type Role string

const (
	RoleUser       Role = "user"
	RoleVenue      Role = "venue"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

var AllRoles = []Role{RoleUser, RoleVenue, RoleAdmin, RoleSuperadmin}

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleVenue, RoleAdmin, RoleSuperadmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

func (r Role) String() string {
	return string(r)
}
