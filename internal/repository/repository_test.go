package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/fyerfyer/doc-lesson-system/internal/database"
	"github.com/fyerfyer/doc-lesson-system/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) (*gorm.DB, func()) {
	// 使用唯一的内存数据库标识符
	dbName := fmt.Sprintf("file:memdb_%d?mode=memory", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{})
	require.NoError(t, err, "Failed to open in-memory database")

	require.NoError(t, database.AutoMigrate(db), "Failed to run migrations")

	// 替换全局DB为测试DB
	originalDB := database.DB
	database.DB = db

	return db, func() {
		database.DB = originalDB
	}
}

func newLesson(id, title string) *models.Lesson {
	lesson := &models.Lesson{
		ID:        id,
		Title:     title,
		Quiz:      "1. Q?\nA) a\nB) b\nC) c\nD) d\nCorrect: A",
		CreatedBy: "user-1",
	}
	_ = lesson.SetSlides([]string{"slide one", "slide two"})
	return lesson
}
