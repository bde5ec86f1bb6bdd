package domain

import "time" // Timestamps

// Roles a user can hold. Role is fixed at registration; the admin is seeded once.
const (
	RoleCustomer = "customer" // Regular shopper
	RoleAdmin    = "admin"    // Store administrator
)

// User Model
type User struct {
	ID           uint      `gorm:"column:user_id;primaryKey" json:"id"`           // Primary key
	Username     string    `gorm:"size:50;uniqueIndex;not null" json:"username"`  // Unique username
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`    // Unique email, used to log in
	PasswordHash string    `gorm:"size:255;not null" json:"-"`                    // bcrypt hash, never serialized
	Role         string    `gorm:"size:20;not null;default:customer" json:"role"` // Role: customer or admin
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`              // Registration time
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
