package storage

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, r io.ReadCloser) string {
	t.Helper()
	defer r.Close()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(b)
}

// exerciseStorage 对任意存储实现执行同一组操作
func exerciseStorage(t *testing.T, s Storage) {
	content := "Photosynthesis converts light energy into chemical energy."

	info, err := s.Save(strings.NewReader(content), "biology-notes.pdf")
	require.NoError(t, err)
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, "biology-notes.pdf", info.Name)
	assert.Equal(t, int64(len(content)), info.Size)
	assert.Equal(t, "application/pdf", info.MimeType)

	t.Run("Get", func(t *testing.T) {
		r, err := s.Get(info.ID)
		require.NoError(t, err)
		assert.Equal(t, content, readAll(t, r))
	})

	t.Run("List", func(t *testing.T) {
		files, err := s.List()
		require.NoError(t, err)
		ids := []string{}
		for _, f := range files {
			ids = append(ids, f.ID)
		}
		assert.Contains(t, ids, info.ID)
	})

	t.Run("Exists", func(t *testing.T) {
		exists, err := s.Exists(info.ID)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = s.Exists("non-existent-id")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, s.Delete(info.ID))

		exists, err := s.Exists(info.ID)
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = s.Get(info.ID)
		assert.ErrorIs(t, err, ErrFileNotFound)
		assert.ErrorIs(t, s.Delete(info.ID), ErrFileNotFound)
	})
}

func TestLocalStorage(t *testing.T) {
	s, err := NewLocalStorage(LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)

	exerciseStorage(t, s)

	// 空ID和带路径的ID不会匹配到任何文件
	for _, id := range []string{"", "*", "../secret", "2024/01/01/x"} {
		_, err = s.Get(id)
		assert.ErrorIs(t, err, ErrFileNotFound, id)
	}
}

func TestLocalStorageKeepsBinaryContent(t *testing.T) {
	s, err := NewLocalStorage(LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)

	data := []byte{0x50, 0x4b, 0x03, 0x04, 0x00, 0xff}
	info, err := s.Save(bytes.NewReader(data), "slides.pptx")
	require.NoError(t, err)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.presentationml.presentation", info.MimeType)

	r, err := s.Get(info.ID)
	require.NoError(t, err)
	assert.Equal(t, string(data), readAll(t, r))
}

// TestMinioStorage 需要可用的MinIO服务，通过 MINIO_ENDPOINT 指定
func TestMinioStorage(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_ENDPOINT not set, skipping MinIO tests")
	}

	s, err := NewMinioStorage(MinioConfig{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("MINIO_SECRET_KEY"),
		Bucket:    "lesson-test",
	})
	require.NoError(t, err)

	exerciseStorage(t, s)
}

func TestNewStorage(t *testing.T) {
	s, err := New(Config{Type: "local", Local: LocalConfig{Path: t.TempDir()}})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)

	_, err = New(Config{Type: "s3"})
	assert.Error(t, err)
}

func TestGetMimeType(t *testing.T) {
	assert.Equal(t, "text/markdown", getMimeType("notes.MD"))
	assert.Equal(t, "text/plain", getMimeType("notes.txt"))
	assert.Equal(t, "application/vnd.ms-powerpoint", getMimeType("deck.ppt"))
	assert.Equal(t, "application/octet-stream", getMimeType("archive.zip"))
}
