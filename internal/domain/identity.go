package domain

import "github.com/google/uuid"

// Role is the authorization level attached to an authenticated user.
type Role string

const (
	RoleUser      Role = "user"
	RoleBarAdmin  Role = "bar_admin"
	RoleSuperuser Role = "superuser"
)

// Identity is the caller resolved from request credentials.
type Identity struct {
	UserID uuid.UUID
	Role   Role
}
