package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
	"upload-coordinator/internal/config"
	"upload-coordinator/internal/core/domain"
	"upload-coordinator/internal/core/port"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// max page size accepted by ListObjectParts
const maxListParts = 1000

// Adapter is an adapter for minio
type Adapter struct {
	client *minio.Client
	core   *minio.Core
	config config.MinioConfig
	logger *slog.Logger
}

var _ port.ObjectStore = (*Adapter)(nil)

// NewAdapter returns Adapter, the bucket is created when missing
func NewAdapter(ctx context.Context, cfg config.MinioConfig, logger *slog.Logger) (*Adapter, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket exists: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	core := minio.Core{Client: client}
	return &Adapter{client: client, config: cfg, core: &core, logger: logger}, nil
}

// CreateMultipart inits a multi part upload
func (a *Adapter) CreateMultipart(ctx context.Context, key string, contentType string) (domain.MultipartHandle, error) {
	opts := minio.PutObjectOptions{ContentType: contentType}
	uploadID, err := a.core.NewMultipartUpload(ctx, a.config.BucketName, key, opts)
	if err != nil {
		return domain.MultipartHandle{}, fmt.Errorf("failed to init multipart upload: %w", err)
	}
	return domain.MultipartHandle{Key: key, UploadID: uploadID}, nil
}

// UploadPart streams one part to minio and returns its ETag
func (a *Adapter) UploadPart(ctx context.Context, handle domain.MultipartHandle, partNumber int, body io.Reader, size int64) (string, error) {
	part, err := a.core.PutObjectPart(ctx, a.config.BucketName, handle.Key, handle.UploadID, partNumber, body, size, minio.PutObjectPartOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to upload part %d: %w", partNumber, err)
	}
	return strings.Trim(part.ETag, "\""), nil
}

// PresignPart generates presigned url for a part
func (a *Adapter) PresignPart(ctx context.Context, handle domain.MultipartHandle, partNumber int, ttl time.Duration) (string, error) {
	reqParams := make(url.Values)
	reqParams.Set("partNumber", strconv.Itoa(partNumber))
	reqParams.Set("uploadId", handle.UploadID)

	presignedURL, err := a.core.PresignHeader(ctx, http.MethodPut, a.config.BucketName, handle.Key, ttl, reqParams, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL for part: %w", err)
	}
	return presignedURL.String(), nil
}

// ListParts lists every uploaded part, following pagination
func (a *Adapter) ListParts(ctx context.Context, handle domain.MultipartHandle) ([]domain.StoredPart, error) {
	parts := []domain.StoredPart{}
	marker := 0

	for {
		result, err := a.core.ListObjectParts(ctx, a.config.BucketName, handle.Key, handle.UploadID, marker, maxListParts)
		if err != nil {
			return nil, fmt.Errorf("failed to list parts: %w", err)
		}

		for _, part := range result.ObjectParts {
			parts = append(parts, domain.StoredPart{
				PartNumber:     part.PartNumber,
				ETag:           strings.Trim(part.ETag, "\""),
				Size:           part.Size,
				ChecksumSHA256: part.ChecksumSHA256,
			})
		}

		if !result.IsTruncated || result.NextPartNumberMarker == 0 {
			return parts, nil
		}
		marker = result.NextPartNumberMarker
	}
}

// CompleteMultipart marks the minio multipart as complete.
// An empty part list stores an empty object and drops the multipart upload.
func (a *Adapter) CompleteMultipart(ctx context.Context, handle domain.MultipartHandle, parts []domain.CompletedPart) (*domain.CompletedObject, error) {
	if len(parts) == 0 {
		return a.completeEmpty(ctx, handle)
	}

	sort.Slice(parts, func(i, j int) bool {
		return parts[i].PartNumber < parts[j].PartNumber
	})

	completeParts := make([]minio.CompletePart, 0, len(parts))
	for _, part := range parts {
		completeParts = append(completeParts, minio.CompletePart{
			PartNumber: part.PartNumber,
			ETag:       strings.Trim(part.ETag, "\""),
		})
	}

	info, err := a.core.CompleteMultipartUpload(ctx, a.config.BucketName, handle.Key, handle.UploadID, completeParts, minio.PutObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to complete multipart upload: %w", err)
	}

	return &domain.CompletedObject{
		Key:      handle.Key,
		Location: info.Location,
		ETag:     strings.Trim(info.ETag, "\""),
	}, nil
}

func (a *Adapter) completeEmpty(ctx context.Context, handle domain.MultipartHandle) (*domain.CompletedObject, error) {
	info, err := a.client.PutObject(ctx, a.config.BucketName, handle.Key, bytes.NewReader(nil), 0, minio.PutObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to put empty object: %w", err)
	}

	if err := a.AbortMultipart(ctx, handle); err != nil {
		a.logger.Warn("empty object stored but multipart upload not aborted",
			slog.String("key", handle.Key),
			slog.String("error", err.Error()))
	}

	return &domain.CompletedObject{
		Key:      handle.Key,
		Location: info.Location,
		ETag:     strings.Trim(info.ETag, "\""),
	}, nil
}

// AbortMultipart aborts an in progress multipart upload
func (a *Adapter) AbortMultipart(ctx context.Context, handle domain.MultipartHandle) error {
	err := a.core.AbortMultipartUpload(ctx, a.config.BucketName, handle.Key, handle.UploadID)
	if err != nil {
		return fmt.Errorf("failed to abort multipart upload: %w", err)
	}

	a.logger.Info("multipart upload aborted",
		slog.String("key", handle.Key),
		slog.String("uploadID", handle.UploadID))

	return nil
}

// ListStaleMultiparts lists multipart uploads under prefix initiated before the given time
func (a *Adapter) ListStaleMultiparts(ctx context.Context, prefix string, initiatedBefore time.Time) ([]domain.MultipartHandle, error) {
	var stale []domain.MultipartHandle

	for upload := range a.client.ListIncompleteUploads(ctx, a.config.BucketName, prefix, true) {
		if upload.Err != nil {
			return nil, fmt.Errorf("failed to list incomplete uploads: %w", upload.Err)
		}
		if upload.Initiated.Before(initiatedBefore) {
			stale = append(stale, domain.MultipartHandle{Key: upload.Key, UploadID: upload.UploadID})
		}
	}

	return stale, nil
}
