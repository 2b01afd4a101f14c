// Package storage holds the deliverable object store. Files never pass
// through the API process: clients upload and download through presigned
// URLs against the bucket directly.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/conny0506/jira-lite/internal/config"
	"github.com/conny0506/jira-lite/internal/observability"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	ErrInvalidUpload      = errors.New("invalid upload parameters")
	ErrDeliverableMissing = errors.New("deliverable not found")
)

const maxDeliverableSize = 50 << 20 // 50 MiB

type UploadInfo struct {
	UploadURL string            `json:"upload_url"`
	ObjectKey string            `json:"object_key"`
	Expires   time.Duration     `json:"expires"`
	Headers   map[string]string `json:"headers"`
}

type ObjectStore struct {
	client     *minio.Client
	bucket     string
	presignTTL time.Duration
}

func NewObjectStore(cfg config.S3Config) (*ObjectStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("object store client: %w", err)
	}
	return &ObjectStore{client: client, bucket: cfg.Bucket, presignTTL: cfg.PresignTTL}, nil
}

// DeliverableUploadURL presigns a PUT for a new deliverable under
// "deliverables/<ticketID>/<uuid><ext>".
func (s *ObjectStore) DeliverableUploadURL(ctx context.Context, ticketID uint, fileName, contentType string, sizeBytes int64) (*UploadInfo, error) {
	if sizeBytes <= 0 || sizeBytes > maxDeliverableSize {
		return nil, ErrInvalidUpload
	}
	ext := strings.ToLower(path.Ext(fileName))
	key := path.Join("deliverables", fmt.Sprintf("%d", ticketID), uuid.NewString()+ext)

	u, err := s.client.PresignedPutObject(ctx, s.bucket, key, s.presignTTL)
	if err != nil {
		observability.RecordDeliverableOperation(ctx, "presign_put", "error")
		return nil, fmt.Errorf("presign upload: %w", err)
	}
	observability.RecordDeliverableOperation(ctx, "presign_put", "success")

	return &UploadInfo{
		UploadURL: u.String(),
		ObjectKey: key,
		Expires:   s.presignTTL,
		Headers: map[string]string{
			"Content-Type":   contentType,
			"Content-Length": fmt.Sprintf("%d", sizeBytes),
		},
	}, nil
}

// ConfirmDeliverable checks the object actually landed in the bucket and
// returns its stored size.
func (s *ObjectStore) ConfirmDeliverable(ctx context.Context, ticketID uint, key string) (int64, error) {
	prefix := path.Join("deliverables", fmt.Sprintf("%d", ticketID)) + "/"
	if !strings.HasPrefix(key, prefix) {
		return 0, ErrInvalidUpload
	}
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == 404 {
			observability.RecordDeliverableOperation(ctx, "confirm", "not_found")
			return 0, ErrDeliverableMissing
		}
		observability.RecordDeliverableOperation(ctx, "confirm", "error")
		return 0, fmt.Errorf("stat deliverable: %w", err)
	}
	observability.RecordDeliverableOperation(ctx, "confirm", "success")
	return info.Size, nil
}

// DeliverableDownloadURL presigns a GET for review download.
func (s *ObjectStore) DeliverableDownloadURL(ctx context.Context, key, fileName string) (string, error) {
	params := url.Values{}
	if fileName != "" {
		params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.presignTTL, params)
	if err != nil {
		observability.RecordDeliverableOperation(ctx, "presign_get", "error")
		return "", fmt.Errorf("presign download: %w", err)
	}
	observability.RecordDeliverableOperation(ctx, "presign_get", "success")
	return u.String(), nil
}
