package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/quonpass/quonpass-backend/pkg/logger"
)

// Key prefixes inside the bucket.
const (
	ProductImageFolder = "products"
	SalesImportFolder  = "imports"
)

const presignExpiry = 15 * time.Minute

// ImageContentTypes are accepted for product image uploads.
var ImageContentTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
}

type S3Storage struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

type PresignedURLResponse struct {
	UploadURL string    `json:"upload_url"`
	FileURL   string    `json:"file_url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewS3Storage(region, bucket, accessKeyID, secretAccessKey, baseURL string) *S3Storage {
	var cfg aws.Config
	var err error

	// Static keys when configured, otherwise the default chain (env, ~/.aws, IAM role)
	if accessKeyID != "" && secretAccessKey != "" {
		cfg = aws.Config{
			Region:      region,
			Credentials: credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		}
	} else {
		cfg, err = config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
		if err != nil {
			logger.Warn("Falling back to region-only AWS config", map[string]interface{}{
				"error": err.Error(),
			})
			cfg = aws.Config{Region: region}
		}
	}

	return &S3Storage{
		client:  s3.NewFromConfig(cfg),
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func objectKey(folder, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%s/%s%s", folder, uuid.NewString(), ext)
}

func (s *S3Storage) fileURL(key string) string {
	if s.baseURL != "" {
		return fmt.Sprintf("%s/%s", s.baseURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.client.Options().Region, key)
}

// PresignUpload returns a PUT URL the browser uploads to directly.
func (s *S3Storage) PresignUpload(ctx context.Context, folder, filename, contentType string) (*PresignedURLResponse, error) {
	key := objectKey(folder, filename)

	presignClient := s3.NewPresignClient(s.client)
	presignedReq, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return &PresignedURLResponse{
		UploadURL: presignedReq.URL,
		FileURL:   s.fileURL(key),
		Key:       key,
		ExpiresAt: time.Now().Add(presignExpiry),
	}, nil
}

// ArchiveImport keeps a copy of an uploaded sales file under imports/<batch id><ext>.
func (s *S3Storage) ArchiveImport(ctx context.Context, batchID, filename string, content []byte) (string, error) {
	key := fmt.Sprintf("%s/%s%s", SalesImportFolder, batchID, strings.ToLower(filepath.Ext(filename)))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		Body:     bytes.NewReader(content),
		Metadata: map[string]string{"original-filename": filepath.Base(filename)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive import file: %w", err)
	}
	return key, nil
}

// ValidateContentType validates the content type
func ValidateContentType(contentType string, allowedTypes []string) error {
	for _, allowed := range allowedTypes {
		if strings.EqualFold(contentType, allowed) {
			return nil
		}
	}
	return fmt.Errorf("content type %s is not allowed", contentType)
}
