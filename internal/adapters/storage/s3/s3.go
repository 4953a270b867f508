package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"
	"upload-coordinator/internal/config"
	"upload-coordinator/internal/core/domain"
	"upload-coordinator/internal/core/port"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Adapter implements the object store on top of the AWS SDK, it also works with any S3 compatible endpoint
type Adapter struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	logger    *slog.Logger
}

var _ port.ObjectStore = (*Adapter)(nil)

// NewAdapter builds the S3 client from cfg. Static keys are used when set, the default credential chain otherwise.
func NewAdapter(ctx context.Context, cfg config.S3Config, logger *slog.Logger) (*Adapter, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return NewAdapterFromClient(client, cfg.BucketName, logger), nil
}

// NewAdapterFromClient wraps an existing client
func NewAdapterFromClient(client *s3.Client, bucket string, logger *slog.Logger) *Adapter {
	return &Adapter{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
		logger:    logger,
	}
}

func (a *Adapter) CreateMultipart(ctx context.Context, key string, contentType string) (domain.MultipartHandle, error) {
	input := &s3.CreateMultipartUploadInput{
		Bucket: &a.bucket,
		Key:    &key,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	result, err := a.client.CreateMultipartUpload(ctx, input)
	if err != nil {
		return domain.MultipartHandle{}, fmt.Errorf("failed to create multipart upload: %w", err)
	}
	return domain.MultipartHandle{Key: key, UploadID: aws.ToString(result.UploadId)}, nil
}

func (a *Adapter) UploadPart(ctx context.Context, handle domain.MultipartHandle, partNumber int, body io.Reader, size int64) (string, error) {
	result, err := a.client.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:        &a.bucket,
		Key:           aws.String(handle.Key),
		UploadId:      aws.String(handle.UploadID),
		PartNumber:    aws.Int32(int32(partNumber)),
		Body:          body,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload part %d: %w", partNumber, err)
	}
	return cleanETag(result.ETag), nil
}

func (a *Adapter) PresignPart(ctx context.Context, handle domain.MultipartHandle, partNumber int, ttl time.Duration) (string, error) {
	req, err := a.presigner.PresignUploadPart(ctx, &s3.UploadPartInput{
		Bucket:     &a.bucket,
		Key:        aws.String(handle.Key),
		UploadId:   aws.String(handle.UploadID),
		PartNumber: aws.Int32(int32(partNumber)),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = ttl
	})
	if err != nil {
		return "", fmt.Errorf("failed to presign part %d: %w", partNumber, err)
	}
	return req.URL, nil
}

func (a *Adapter) ListParts(ctx context.Context, handle domain.MultipartHandle) ([]domain.StoredPart, error) {
	parts := []domain.StoredPart{}

	paginator := s3.NewListPartsPaginator(a.client, &s3.ListPartsInput{
		Bucket:   &a.bucket,
		Key:      aws.String(handle.Key),
		UploadId: aws.String(handle.UploadID),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list parts: %w", err)
		}
		for _, part := range page.Parts {
			parts = append(parts, domain.StoredPart{
				PartNumber:     int(aws.ToInt32(part.PartNumber)),
				ETag:           cleanETag(part.ETag),
				Size:           aws.ToInt64(part.Size),
				ChecksumSHA256: aws.ToString(part.ChecksumSHA256),
			})
		}
	}

	return parts, nil
}

// CompleteMultipart finalizes the object, an empty part list stores an empty object instead
func (a *Adapter) CompleteMultipart(ctx context.Context, handle domain.MultipartHandle, parts []domain.CompletedPart) (*domain.CompletedObject, error) {
	if len(parts) == 0 {
		return a.completeEmpty(ctx, handle)
	}

	sort.Slice(parts, func(i, j int) bool {
		return parts[i].PartNumber < parts[j].PartNumber
	})

	completed := make([]types.CompletedPart, len(parts))
	for i, part := range parts {
		completed[i] = types.CompletedPart{
			ETag:       aws.String(part.ETag),
			PartNumber: aws.Int32(int32(part.PartNumber)),
		}
	}

	res, err := a.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   &a.bucket,
		Key:      aws.String(handle.Key),
		UploadId: aws.String(handle.UploadID),
		MultipartUpload: &types.CompletedMultipartUpload{
			Parts: completed,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to complete multipart upload: %w", err)
	}

	return &domain.CompletedObject{
		Key:      handle.Key,
		Location: aws.ToString(res.Location),
		ETag:     cleanETag(res.ETag),
	}, nil
}

func (a *Adapter) completeEmpty(ctx context.Context, handle domain.MultipartHandle) (*domain.CompletedObject, error) {
	res, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &a.bucket,
		Key:           aws.String(handle.Key),
		Body:          bytes.NewReader(nil),
		ContentLength: aws.Int64(0),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to put empty object: %w", err)
	}

	if err := a.AbortMultipart(ctx, handle); err != nil {
		a.logger.Warn("empty object stored but multipart upload not aborted",
			slog.String("key", handle.Key),
			slog.String("error", err.Error()))
	}

	return &domain.CompletedObject{Key: handle.Key, ETag: cleanETag(res.ETag)}, nil
}

func (a *Adapter) AbortMultipart(ctx context.Context, handle domain.MultipartHandle) error {
	_, err := a.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   &a.bucket,
		Key:      aws.String(handle.Key),
		UploadId: aws.String(handle.UploadID),
	})
	if err != nil {
		return fmt.Errorf("failed to abort multipart upload: %w", err)
	}

	a.logger.Info("multipart upload aborted",
		slog.String("key", handle.Key),
		slog.String("uploadID", handle.UploadID))
	return nil
}

func (a *Adapter) ListStaleMultiparts(ctx context.Context, prefix string, initiatedBefore time.Time) ([]domain.MultipartHandle, error) {
	var stale []domain.MultipartHandle

	input := &s3.ListMultipartUploadsInput{
		Bucket: &a.bucket,
		Prefix: aws.String(prefix),
	}
	for {
		page, err := a.client.ListMultipartUploads(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to list multipart uploads: %w", err)
		}

		for _, upload := range page.Uploads {
			if aws.ToTime(upload.Initiated).Before(initiatedBefore) {
				stale = append(stale, domain.MultipartHandle{
					Key:      aws.ToString(upload.Key),
					UploadID: aws.ToString(upload.UploadId),
				})
			}
		}

		if !aws.ToBool(page.IsTruncated) {
			return stale, nil
		}
		input.KeyMarker = page.NextKeyMarker
		input.UploadIdMarker = page.NextUploadIdMarker
	}
}

func cleanETag(etag *string) string {
	return strings.ReplaceAll(aws.ToString(etag), "\"", "")
}
