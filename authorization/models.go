package authorization

import "time"

// User represents an application account.
type User struct {
	ID           uint    `gorm:"primaryKey"`
	Username     string  `gorm:"uniqueIndex;size:64;not null"`
	PasswordHash string  `gorm:"size:255;not null"`
	DisplayName  string  `gorm:"size:128;not null;default:''"`
	AvatarURL    *string `gorm:"size:255"`
	Bio          *string `gorm:"type:text"`
	Status       string  `gorm:"size:32;default:'active'"`
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Role represents a collection of permissions assigned to users.
type Role struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex;size:64;not null"`
	Code      string `gorm:"uniqueIndex;size:64;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserRole associates users with roles.
type UserRole struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"uniqueIndex:idx_user_role;not null"`
	RoleID    uint `gorm:"uniqueIndex:idx_user_role;not null"`
	CreatedAt time.Time
}

// AuthenticatedUser is the minimal identity stored inside JWT claims.
type AuthenticatedUser struct {
	ID       uint
	Username string
	Roles    []string
}
