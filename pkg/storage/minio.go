package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// sourcePrefix 课程源文件的对象名前缀
const sourcePrefix = "sources/"

// MinioStorage MinIO存储实现
type MinioStorage struct {
	client     *minio.Client // MinIO客户端
	bucketName string        // 存储桶名称
	timeout    time.Duration // 单次操作超时
}

// MinioConfig MinIO存储配置
type MinioConfig struct {
	Endpoint  string        // MinIO服务端点
	AccessKey string        // 访问密钥ID
	SecretKey string        // 秘密访问密钥
	UseSSL    bool          // 是否使用SSL
	Bucket    string        // 存储桶名称
	Timeout   time.Duration // 单次操作超时，默认30秒
}

// NewMinioStorage 创建MinIO存储实例
func NewMinioStorage(cfg MinioConfig) (*MinioStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %v", err)
	}

	s := &MinioStorage{
		client:     client,
		bucketName: cfg.Bucket,
		timeout:    cfg.Timeout,
	}
	if s.timeout <= 0 {
		s.timeout = 30 * time.Second
	}

	// 检查存储桶是否存在，不存在则创建
	ctx, cancel := s.context()
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket exists: %v", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %v", err)
		}
	}

	return s, nil
}

func (s *MinioStorage) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// Save 保存文件到MinIO存储
// 以流式方式上传，原始文件名记录在对象元数据中
func (s *MinioStorage) Save(reader io.Reader, filename string) (FileInfo, error) {
	id := uuid.New().String()
	objectName := sourcePrefix + id + filepath.Ext(filename)
	contentType := getMimeType(filename)

	ctx, cancel := s.context()
	defer cancel()

	info, err := s.client.PutObject(ctx, s.bucketName, objectName, reader, -1, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"original-name": filename},
	})
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to upload file: %v", err)
	}

	return FileInfo{
		ID:       id,
		Name:     filename,
		Size:     info.Size,
		MimeType: contentType,
		Path:     objectName,
	}, nil
}

// Get 获取MinIO中的文件
// 返回的对象在读取时才会真正下载，不受操作超时限制
func (s *MinioStorage) Get(id string) (io.ReadCloser, error) {
	objectName, err := s.objectName(id)
	if err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(context.Background(), s.bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %v", err)
	}
	return obj, nil
}

// Delete 从MinIO中删除文件
func (s *MinioStorage) Delete(id string) error {
	objectName, err := s.objectName(id)
	if err != nil {
		return err
	}

	ctx, cancel := s.context()
	defer cancel()

	if err := s.client.RemoveObject(ctx, s.bucketName, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %v", err)
	}
	return nil
}

// List 列出MinIO中的所有源文件
func (s *MinioStorage) List() ([]FileInfo, error) {
	return s.list(sourcePrefix)
}

// Exists 检查MinIO中是否存在指定ID的文件
func (s *MinioStorage) Exists(id string) (bool, error) {
	files, err := s.list(sourcePrefix + id)
	if err != nil {
		return false, err
	}
	for _, f := range files {
		if f.ID == id {
			return true, nil
		}
	}
	return false, nil
}

// objectName 按ID前缀查找对象名
func (s *MinioStorage) objectName(id string) (string, error) {
	if id == "" {
		return "", notFound(id)
	}
	files, err := s.list(sourcePrefix + id)
	if err != nil {
		return "", err
	}
	for _, f := range files {
		if f.ID == id {
			return f.Path, nil
		}
	}
	return "", notFound(id)
}

func (s *MinioStorage) list(prefix string) ([]FileInfo, error) {
	ctx, cancel := s.context()
	defer cancel()

	files := []FileInfo{}
	objectCh := s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for object := range objectCh {
		if object.Err != nil {
			return nil, fmt.Errorf("error listing objects: %v", object.Err)
		}
		files = append(files, FileInfo{
			ID:       idFromName(object.Key),
			Name:     filepath.Base(object.Key),
			Size:     object.Size,
			MimeType: getMimeType(object.Key),
			Path:     object.Key,
		})
	}
	return files, nil
}
