package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户模型
type User struct {
	ID           string     `gorm:"primaryKey"`                    // 用户ID，主键
	Username     string     `gorm:"size:150;not null;uniqueIndex"` // 用户名
	Email        string     `gorm:"size:254;not null;uniqueIndex"` // 邮箱
	PasswordHash string     `gorm:"size:100;not null"`             // bcrypt 密码哈希
	CreatedAt    time.Time  `gorm:"not null"`                      // 注册时间
	UpdatedAt    time.Time  `gorm:"not null"`                      // 更新时间
	LastLoginAt  *time.Time `gorm:"index"`                         // 最近登录时间
}

// BeforeCreate GORM的钩子函数，创建记录前自动设置时间
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate GORM的钩子函数，更新记录前自动设置更新时间
func (u *User) BeforeUpdate(tx *gorm.DB) (err error) {
	u.UpdatedAt = time.Now()
	return nil
}

// TableName 明确指定表名
func (User) TableName() string {
	return "users"
}
