package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Folders used inside the media bucket.
const (
	FolderLogos      = "logos"
	FolderStamps     = "stamps"
	FolderSignatures = "signatures"
	FolderInvoices   = "invoices"
)

// StoredObject describes an uploaded file.
type StoredObject struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// MediaStore keeps logos, stamps, signatures and rendered invoices.
type MediaStore interface {
	Upload(ctx context.Context, folder, filename string, reader io.Reader, size int64, contentType string) (*StoredObject, error)
	GetPresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
	EnsureBucketExists(ctx context.Context) error
	Ping(ctx context.Context) error
}

// objectClient is the part of *minio.Client the store uses.
type objectClient interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	SetBucketPolicy(ctx context.Context, bucketName, policy string) error
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	PublicURL string
}

type minioStore struct {
	client    objectClient
	bucket    string
	publicURL string
}

func NewMinioService(cfg MinioConfig) (MediaStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + cfg.Endpoint
	}
	return newMinioStore(client, cfg.Bucket, publicURL), nil
}

func newMinioStore(client objectClient, bucket, publicURL string) *minioStore {
	return &minioStore{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// objectKey keeps the original extension and replaces the name with a uuid.
func objectKey(folder, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join(folder, uuid.NewString()+ext)
}

func (m *minioStore) Upload(ctx context.Context, folder, filename string, reader io.Reader, size int64, contentType string) (*StoredObject, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := objectKey(folder, filename)
	_, err := m.client.PutObject(ctx, m.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return &StoredObject{Key: key, URL: m.publicURL + "/" + m.bucket + "/" + key}, nil
}

func (m *minioStore) GetPresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return u.String(), nil
}

func (m *minioStore) Delete(ctx context.Context, key string) error {
	return m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
}

// EnsureBucketExists creates the bucket and opens the image folders for
// anonymous reads so stored URLs render in browsers and PDFs.
func (m *minioStore) EnsureBucketExists(ctx context.Context) error {
	found, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !found {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return err
		}
	}
	return m.client.SetBucketPolicy(ctx, m.bucket, publicReadPolicy(m.bucket))
}

func (m *minioStore) Ping(ctx context.Context) error {
	_, err := m.client.BucketExists(ctx, m.bucket)
	return err
}

func publicReadPolicy(bucket string) string {
	resources := make([]string, 0, 3)
	for _, folder := range []string{FolderLogos, FolderStamps, FolderSignatures} {
		resources = append(resources, fmt.Sprintf(`"arn:aws:s3:::%s/%s/*"`, bucket, folder))
	}
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":[%s]}]}`,
		strings.Join(resources, ","))
}
