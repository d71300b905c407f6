package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"pillar_journey_backend/internal/config"
	"pillar_journey_backend/internal/util"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// StorageProvider 报表归档的存储后端
type StorageProvider interface {
	Put(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (string, error)
	Get(ctx context.Context, name string) ([]byte, error)
}

// LocalStorageProvider 本地目录存储
type LocalStorageProvider struct {
	Root string
}

func (p *LocalStorageProvider) Put(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (string, error) {
	dst := filepath.Join(p.Root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", err
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(dst), nil
}

func (p *LocalStorageProvider) Get(ctx context.Context, name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(p.Root, filepath.FromSlash(name)))
}

// MinioStorageProvider MinIO 存储
type MinioStorageProvider struct {
	Bucket string
	Client *minio.Client
}

func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorageProvider{Bucket: cfg.MinioBucket, Client: client}, nil
}

// EnsureBucket 桶不存在时创建
func (p *MinioStorageProvider) EnsureBucket(ctx context.Context) error {
	exists, err := p.Client.BucketExists(ctx, p.Bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return p.Client.MakeBucket(ctx, p.Bucket, minio.MakeBucketOptions{})
}

func (p *MinioStorageProvider) Put(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := p.Client.PutObject(ctx, p.Bucket, name, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return "s3://" + p.Bucket + "/" + name, nil
}

func (p *MinioStorageProvider) Get(ctx context.Context, name string) ([]byte, error) {
	obj, err := p.Client.GetObject(ctx, p.Bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

// StorageService 按配置选择存储后端
type StorageService struct {
	provider StorageProvider
}

func NewStorageService(cfg *config.StorageConfig) (*StorageService, error) {
	switch cfg.Type {
	case util.StorageMinio:
		p, err := NewMinioStorageProvider(cfg)
		if err != nil {
			return nil, err
		}
		return &StorageService{provider: p}, nil
	case util.StorageLocal, "":
		return &StorageService{provider: &LocalStorageProvider{Root: cfg.LocalPath}}, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.Type)
	}
}

// NewStorageServiceWithProvider 测试时注入存储后端
func NewStorageServiceWithProvider(p StorageProvider) *StorageService {
	return &StorageService{provider: p}
}

// Provider 返回底层存储后端
func (s *StorageService) Provider() StorageProvider {
	return s.provider
}

// ArchiveReport 保存一份 CSV 报表副本，返回存储位置
func (s *StorageService) ArchiveReport(ctx context.Context, userID uint, date string, data []byte) (string, error) {
	name := fmt.Sprintf("reports/%d/journey-report-%s.csv", userID, date)
	loc, err := s.provider.Put(ctx, name, bytes.NewReader(data), int64(len(data)), "text/csv")
	if err != nil {
		return "", fmt.Errorf("%w: archive report: %v", util.ErrUnavailable, err)
	}
	return loc, nil
}
