package domain

import "time"

// Role is the closed set of role names known to the system.
type Role struct {
	ID   uint   `gorm:"primaryKey"`      // Primary key
	Name string `gorm:"uniqueIndex;size:50;not null"` // Role name: Admin or User
}

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
)

// KnownRole reports whether name is one of the defined role names.
func KnownRole(name string) bool {
	return name == RoleAdmin || name == RoleUser
}

// User Model
type User struct {
	ID               string     `gorm:"primaryKey;size:36"`           // UUID primary key
	Email            string     `gorm:"uniqueIndex;size:254;not null"` // Unique email, also the login name
	PasswordHash     string     `gorm:"not null"`                      // Bcrypt hash
	FailedLoginCount int        // Consecutive failed login attempts
	LockedUntil      *time.Time // Account locked until this time, nil when unlocked
	Roles            []Role     `gorm:"many2many:user_roles"` // Assigned roles
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasRole reports whether the user holds the given role.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// RoleNames returns the user's role names.
func (u *User) RoleNames() []string {
	names := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		names[i] = r.Name
	}
	return names
}
