package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const (
	maxAvatarBytes       int64 = 5 * 1024 * 1024
	defaultPresignExpiry       = 15 * time.Minute
)

// avatarContentTypes maps accepted upload content types onto the file
// extension stored in the bucket.
var avatarContentTypes = map[string]string{
	"image/png":   ".png",
	"image/x-png": ".png",
	"image/jpeg":  ".jpg",
	"image/pjpeg": ".jpg",
	"image/webp":  ".webp",
	"image/gif":   ".gif",
}

// AvatarStorage stores avatar images in a MinIO/S3 bucket.
type AvatarStorage struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewAvatarStorageFromEnv initialises AvatarStorage from MINIO_*
// environment variables. When the variables are absent the helper
// returns nil storage so avatar handling degrades gracefully.
func NewAvatarStorageFromEnv() (*AvatarStorage, error) {
	endpoint := strings.TrimSpace(os.Getenv("MINIO_ENDPOINT"))
	accessKey := strings.TrimSpace(os.Getenv("MINIO_ACCESS_KEY"))
	secretKey := strings.TrimSpace(os.Getenv("MINIO_SECRET_KEY"))
	bucket := strings.TrimSpace(os.Getenv("MINIO_BUCKET"))
	if endpoint == "" || accessKey == "" || secretKey == "" || bucket == "" {
		return nil, nil
	}

	useSSL := strings.EqualFold(strings.TrimSpace(os.Getenv("MINIO_USE_SSL")), "true")
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: init minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("storage: check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("storage: create bucket: %w", err)
		}
	}

	publicURL := strings.TrimSpace(os.Getenv("MINIO_PUBLIC_URL"))
	if publicURL == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s", scheme, endpoint)
	}

	return &AvatarStorage{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}, nil
}

// Upload stores the provided avatar image beneath the given path
// segments. The final object key is avatars/<segments...>/<uuid>.<ext>.
func (s *AvatarStorage) Upload(ctx context.Context, fileHeader *multipart.FileHeader, pathSegments ...string) (string, error) {
	if s == nil || s.client == nil {
		return "", errors.New("storage: avatar storage not configured")
	}
	if fileHeader == nil {
		return "", errors.New("storage: avatar file not provided")
	}
	if fileHeader.Size > maxAvatarBytes {
		return "", fmt.Errorf("storage: avatar size exceeds %d bytes", maxAvatarBytes)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("storage: open avatar: %w", err)
	}
	defer src.Close()

	var buffer bytes.Buffer
	written, err := io.Copy(&buffer, io.LimitReader(src, maxAvatarBytes+1))
	if err != nil {
		return "", fmt.Errorf("storage: read avatar: %w", err)
	}
	if written > maxAvatarBytes {
		return "", fmt.Errorf("storage: avatar size exceeds %d bytes", maxAvatarBytes)
	}

	data := buffer.Bytes()
	contentType := strings.TrimSpace(fileHeader.Header.Get("Content-Type"))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if _, ok := avatarContentTypes[normalizeContentType(contentType)]; !ok {
		return "", fmt.Errorf("storage: unsupported avatar content type %q", contentType)
	}

	segments := []string{"avatars"}
	for _, segment := range pathSegments {
		if trimmed := strings.Trim(segment, "/"); trimmed != "" {
			segments = append(segments, trimmed)
		}
	}
	objectName := path.Join(append(segments, uuid.NewString()+avatarExtension(fileHeader.Filename, contentType))...)

	uploadCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	_, err = s.client.PutObject(uploadCtx, s.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=604800",
	})
	if err != nil {
		return "", fmt.Errorf("storage: upload avatar: %w", err)
	}

	return s.buildPublicURL(objectName), nil
}

// Remove deletes the object pointed to by the provided URL or object path.
func (s *AvatarStorage) Remove(ctx context.Context, avatarURL string) error {
	if s == nil || s.client == nil {
		return nil
	}
	objectName := s.objectNameFromURL(avatarURL)
	if objectName == "" {
		return nil
	}

	removeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.client.RemoveObject(removeCtx, s.bucket, objectName, minio.RemoveObjectOptions{})
}

// PresignedURL returns a temporary URL for accessing the provided avatar.
func (s *AvatarStorage) PresignedURL(ctx context.Context, raw string, expiry time.Duration) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if s == nil || s.client == nil || trimmed == "" {
		return trimmed, nil
	}

	if expiry <= 0 {
		expiry = defaultPresignExpiry
	}

	objectName := s.objectNameFromURL(trimmed)
	if objectName == "" {
		return trimmed, nil
	}

	presignCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	signed, err := s.client.PresignedGetObject(presignCtx, s.bucket, objectName, expiry, nil)
	if err != nil {
		return "", err
	}

	return signed.String(), nil
}

func (s *AvatarStorage) buildPublicURL(objectName string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(s.publicURL, "/"), s.bucket, strings.TrimPrefix(objectName, "/"))
}

// objectNameFromURL extracts the bucket-relative object key from a
// public URL, presigned URL, or bare object path. An empty result means
// the URL does not point into this storage.
func (s *AvatarStorage) objectNameFromURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	if !strings.Contains(trimmed, "://") {
		return s.stripBucketPrefix(trimmed)
	}

	base := strings.TrimSuffix(s.publicURL, "/")
	if base != "" && strings.HasPrefix(trimmed, base) {
		return s.stripBucketPrefix(strings.TrimPrefix(trimmed, base))
	}

	target, err := url.Parse(trimmed)
	if err != nil {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err == nil && baseURL.Host != "" && baseURL.Host == target.Host {
		return s.stripBucketPrefix(target.Path)
	}

	return ""
}

func (s *AvatarStorage) stripBucketPrefix(candidate string) string {
	candidate = strings.TrimPrefix(candidate, "/")
	candidate = strings.TrimPrefix(candidate, s.bucket+"/")
	return strings.TrimPrefix(candidate, "/")
}

func normalizeContentType(contentType string) string {
	return strings.ToLower(strings.TrimSpace(contentType))
}

func avatarExtension(filename, contentType string) string {
	if ext, ok := avatarContentTypes[normalizeContentType(contentType)]; ok {
		return ext
	}
	ext := strings.ToLower(strings.TrimSpace(filepath.Ext(filename)))
	if ext == "" {
		return ".bin"
	}
	return ext
}
