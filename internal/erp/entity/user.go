package entity

import "time"

// User ERP account
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	Username     string    `json:"username" gorm:"size:100;uniqueIndex;not null"`
	Name         string    `json:"name" gorm:"size:100;not null"`
	Email        string    `json:"email" gorm:"size:200"`
	PasswordHash string    `json:"-" gorm:"size:200;not null"`
	Role         string    `json:"role" gorm:"size:50;default:viewer"` // admin/procurement/viewer
	Status       string    `json:"status" gorm:"size:20;default:active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

const (
	RoleAdmin       = "admin"
	RoleProcurement = "procurement"
	RoleViewer      = "viewer"
)
