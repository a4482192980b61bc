package filestorage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"

	"github.com/strumscan/scan-server/internal/config"
)

type S3FileStorage struct {
	client *s3.Client
	cfg    *config.S3Config
}

func NewS3FileStorage(cfg *config.Config) (*S3FileStorage, error) {
	if cfg.S3 == nil {
		return nil, fmt.Errorf("s3 config is not set")
	}

	credentialsProvider := credentials.NewStaticCredentialsProvider(cfg.S3.AccessKey, cfg.S3.SecretKey, "")
	awsCfg, err := awsConfig.LoadDefaultConfig(
		context.TODO(),
		awsConfig.WithRegion(cfg.S3.Region),
		awsConfig.WithCredentialsProvider(credentialsProvider),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.EndpointUrl != "" {
			o.BaseEndpoint = &cfg.S3.EndpointUrl
		}
	})

	return &S3FileStorage{
		client: client,
		cfg:    cfg.S3,
	}, nil
}

func (u *S3FileStorage) Upload(file FileInfo) (string, error) {
	key := u.objectKey(file)
	mtype := mimetype.Detect(file.Content).String()

	_, err := u.client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket:      &u.cfg.Bucket,
		Key:         &key,
		Body:        bytes.NewReader(file.Content),
		ContentType: &mtype,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to s3: %w", err)
	}

	if u.cfg.PublicUrl != "" {
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(u.cfg.PublicUrl, "/"), key), nil
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.cfg.Bucket, u.cfg.Region, key), nil
}

func (u *S3FileStorage) GetFile(filename string) (*FileInfo, error) {
	key := u.objectKey(FileInfo{Name: strings.TrimSuffix(filename, extOf(filename)), Extension: extOf(filename)})

	out, err := u.client.GetObject(context.TODO(), &s3.GetObjectInput{
		Bucket: &u.cfg.Bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from s3: %w", err)
	}
	defer out.Body.Close()

	content, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, err
	}

	return &FileInfo{
		Name:      filename,
		Extension: extOf(filename),
		Content:   content,
	}, nil
}

// ResolveFile has no local path for objects in a bucket; callers stream the
// content through GetFile instead.
func (u *S3FileStorage) ResolveFile(filename string, isTemp bool) (string, error) {
	return "", fmt.Errorf("s3 storage has no local path for %s", filename)
}

func (u *S3FileStorage) objectKey(file FileInfo) string {
	if file.IsTemp {
		return fmt.Sprintf("temp/%s%s", file.Name, file.Extension)
	}

	folder := strings.TrimSuffix(u.cfg.Folder, "/")
	if folder == "" {
		folder = "scans"
	}

	return fmt.Sprintf("%s/%s%s", folder, file.Name, file.Extension)
}

func extOf(filename string) string {
	if idx := strings.LastIndex(filename, "."); idx >= 0 {
		return filename[idx:]
	}

	return ""
}
