package model

import (
	"time"
)

type UserRole string

const (
	RoleAdmin   UserRole = "admin"   // full access including user management
	RoleManager UserRole = "manager" // stores, products, targets, sales
	RoleStaff   UserRole = "staff"   // read access and sales import
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff:
		return true
	}
	return false
}

type User struct {
	ID           uint       `gorm:"primarykey" json:"id"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"not null" json:"-"`
	Name         string     `gorm:"not null" json:"name"`
	Role         UserRole   `gorm:"type:varchar(20);default:'staff';not null" json:"role"`
	StoreID      *uint      `gorm:"index" json:"store_id,omitempty"` // home store for managers/staff
	Store        *Store     `gorm:"foreignKey:StoreID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"store,omitempty"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
