package models

import "gorm.io/gorm"

// User — учетная запись оператора системы.
type User struct {
	gorm.Model

	Username     string `gorm:"column:username;uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"column:password_hash;not null"        json:"-"`
	FullName     string `gorm:"column:full_name"                     json:"fullName"`
}

func (User) TableName() string { return "users" }

// UserResponse — представление пользователя для ответов API (без хэша пароля).
type UserResponse struct {
	ID       uint   `json:"ID"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, FullName: u.FullName}
}
