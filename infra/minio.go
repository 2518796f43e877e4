package infra

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/madmin-go/v3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/uploadkit/upload-gateway/config"
)

type MinioClient struct {
	Admin    *madmin.AdminClient
	Client   *minio.Client
	Endpoint string
}

func InitMinioClient(cfg *config.EnvConfig) *MinioClient {
	endpoint := cfg.Minio.Endpoint
	if endpoint == "" {
		panic("MinIO endpoint is not configured")
	}

	rootUser := cfg.Minio.RootUser
	if rootUser == "" {
		panic("MinIO root user is not configured")
	}

	rootPassword := cfg.Minio.RootPassword
	if rootPassword == "" {
		panic("MinIO root password is not configured")
	}

	madminClient, err := madmin.New(endpoint, rootUser, rootPassword, false)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize MinIO admin client: %v", err))
	}

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(rootUser, rootPassword, ""),
		Secure: false,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize MinIO client: %v", err))
	}

	return &MinioClient{
		Admin:    madminClient,
		Client:   minioClient,
		Endpoint: endpoint,
	}
}

// Healthy probes the storage backend through the admin API.
func (m *MinioClient) Healthy(ctx context.Context) error {
	if _, err := m.Admin.ServerInfo(ctx); err != nil {
		return fmt.Errorf("storage backend unreachable: %w", err)
	}
	return nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (m *MinioClient) EnsureBucket(ctx context.Context, bucket string) error {
	if bucket == "" {
		return fmt.Errorf("bucket cannot be empty")
	}

	err := m.Client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
	if err != nil {
		exists, errExists := m.Client.BucketExists(ctx, bucket)
		if errExists == nil && exists {
			return nil
		}
		return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
	}
	return nil
}

// PutObjectStream stores an object of known size without buffering it.
func (m *MinioClient) PutObjectStream(ctx context.Context, bucket, key string, data io.Reader, size int64, contentType string, metadata map[string]string) error {
	_, err := m.Client.PutObject(ctx, bucket, key, data, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s/%s: %w", bucket, key, err)
	}
	return nil
}

// GetObjectStream opens an object for reading and returns its size.
func (m *MinioClient) GetObjectStream(ctx context.Context, bucket, key string) (io.ReadCloser, int64, error) {
	obj, err := m.Client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get object %s/%s: %w", bucket, key, err)
	}

	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, 0, fmt.Errorf("failed to stat object %s/%s: %w", bucket, key, err)
	}

	return obj, stat.Size, nil
}

// RemovePrefix deletes every object under prefix. Used to drop a session's
// staged files.
func (m *MinioClient) RemovePrefix(ctx context.Context, bucket, prefix string) error {
	objects := m.Client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			return fmt.Errorf("failed to list %s/%s: %w", bucket, prefix, obj.Err)
		}
		if err := m.Client.RemoveObject(ctx, bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to remove %s/%s: %w", bucket, obj.Key, err)
		}
	}
	return nil
}

// TransferObject streams an object from one bucket to another, reporting
// transferred bytes through onBytes. Returns the number of bytes moved.
func (m *MinioClient) TransferObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey, contentType string, onBytes func(int64)) (int64, error) {
	src, size, err := m.GetObjectStream(ctx, srcBucket, srcKey)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	reader := &countingReader{r: src, onBytes: onBytes}
	if err := m.PutObjectStream(ctx, dstBucket, dstKey, reader, size, contentType, nil); err != nil {
		return reader.n, err
	}
	return reader.n, nil
}

type countingReader struct {
	r       io.Reader
	n       int64
	onBytes func(int64)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.n += int64(n)
		if c.onBytes != nil {
			c.onBytes(c.n)
		}
	}
	return n, err
}
