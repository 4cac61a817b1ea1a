package models

import "time"

// Category groups SOPs. Every SOP belongs to exactly one category.
type Category struct {
	ID          uint    `gorm:"primarykey" json:"id"`
	Name        string  `gorm:"size:255;not null" json:"name"`
	Description *string `gorm:"type:text" json:"description"`
}

func (Category) TableName() string {
	return "categories"
}

// Tag is a free-form label attached to SOPs through SOPTag.
type Tag struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Name string `gorm:"size:100;not null;uniqueIndex" json:"name"`
}

func (Tag) TableName() string {
	return "tags"
}

// UserRole defines the access level of a user account.
type UserRole string

const (
	RoleUser   UserRole = "ROLE_USER"
	RoleEditor UserRole = "ROLE_EDITOR"
	RoleAdmin  UserRole = "ROLE_ADMIN"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleUser, RoleEditor, RoleAdmin:
		return true
	}
	return false
}

// User is an account that authors SOPs and tracks progress.
type User struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"size:180;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         UserRole  `gorm:"type:varchar(30);default:'ROLE_USER';not null" json:"role"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (User) TableName() string {
	return "users"
}
