package repository

import (
	"errors"
	"time"

	"github.com/fyerfyer/doc-lesson-system/internal/database"
	"github.com/fyerfyer/doc-lesson-system/internal/models"
	"gorm.io/gorm"
)

// userRepository 用户仓储实现
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储实例
func NewUserRepository() UserRepository {
	return &userRepository{db: database.MustDB()}
}

// NewUserRepositoryWithDB 使用指定的数据库连接创建用户仓储实例
func NewUserRepositoryWithDB(db *gorm.DB) UserRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &userRepository{db: db}
}

// Create 创建用户
// 先检查重复再插入，唯一索引兜底并发注册
func (r *userRepository) Create(user *models.User) error {
	if user.ID == "" {
		return errors.New("user ID cannot be empty")
	}

	var count int64
	err := r.db.Model(&models.User{}).
		Where("username = ? OR email = ?", user.Username, user.Email).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return models.ErrUserExists
	}

	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.ErrUserExists
		}
		return err
	}
	return nil
}

// GetByID 根据ID获取用户
func (r *userRepository) GetByID(id string) (*models.User, error) {
	return r.first("id = ?", id)
}

// GetByUsername 根据用户名获取用户
func (r *userRepository) GetByUsername(username string) (*models.User, error) {
	return r.first("username = ?", username)
}

func (r *userRepository) first(query string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin 记录最近登录时间
func (r *userRepository) UpdateLastLogin(id string) error {
	now := time.Now()
	return r.db.Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_login_at": &now,
			"updated_at":    now,
		}).Error
}
