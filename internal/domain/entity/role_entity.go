package entity

// Role represents an authorization role
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

func (r Role) String() string { return string(r) }
