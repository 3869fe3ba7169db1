package models

import "time"

const RoleAdmin = "admin"

// UserModel represents an operator account.
type UserModel struct {
	Base
	Username      string     `json:"username"        gorm:"uniqueIndex;not null"`
	Email         string     `json:"email"           gorm:"uniqueIndex;not null"`
	Password      string     `json:"-"               gorm:"not null"`
	LastLoginTime *time.Time `json:"last_login_time"`
	LastLoginIP   string     `json:"last_login_ip"`
	Roles         []UserRole `json:"-"               gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (UserModel) TableName() string { return "users" }

// UserRole grants a named role to a user. Admin status is derived from the
// presence of a RoleAdmin row and never stored on the user itself.
type UserRole struct {
	UserID    string    `json:"user_id"    gorm:"type:char(36);primaryKey"`
	Role      string    `json:"role"       gorm:"size:32;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
}

func (UserRole) TableName() string { return "user_roles" }
