package client

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"upload-coordinator/internal/adapters/handlers/http/chi/v1/upload"
	"upload-coordinator/internal/core/chunk"
	"upload-coordinator/internal/core/domain"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// UploadOptions describes one file upload
type UploadOptions struct {
	FileName  string
	MimeType  string
	ChunkSize int64
	Strategy  domain.StorageStrategy
	// ResumeID continues an existing session, parts already recorded with the same checksum are skipped
	ResumeID uuid.UUID
	Progress func(sent, total int64)
}

// UploadResult is returned by UploadFile
type UploadResult struct {
	UploadID uuid.UUID
	FileID   string
	Location string
	ETag     string
	Skipped  int
}

type sessionPlan struct {
	id       uuid.UUID
	plan     chunk.Plan
	strategy domain.StorageStrategy
	recorded map[int]string
}

// UploadFile sends size bytes of r in parts and commits the upload
func (c *Client) UploadFile(ctx context.Context, r io.ReaderAt, size int64, opts UploadOptions) (*UploadResult, error) {
	sp, err := c.openSession(ctx, size, opts)
	if err != nil {
		return nil, err
	}

	c.logger.Info("uploading",
		"upload_id", sp.id,
		"size", humanize.IBytes(uint64(size)),
		"chunk_size", humanize.IBytes(uint64(sp.plan.ChunkSize)),
		"parts", sp.plan.TotalChunks,
		"strategy", sp.strategy)

	claims := make([]upload.V1ClaimedPart, sp.plan.TotalChunks)
	var (
		pending []int
		sent    atomic.Int64
		skipped int
	)

	for index := 0; index < sp.plan.TotalChunks; index++ {
		data, err := readPart(r, sp.plan, index)
		if err != nil {
			return nil, err
		}
		sum := domain.Checksum(data)
		claims[index] = upload.V1ClaimedPart{Index: index, Checksum: sum}
		if sp.recorded[index] == sum {
			skipped++
			c.progress(opts, sent.Add(int64(len(data))), size)
			continue
		}
		pending = append(pending, index)
	}

	urls := map[int]string{}
	if sp.strategy == domain.StorageStrategyPresigned && len(pending) > 0 {
		parts, err := c.PresignParts(ctx, sp.id, pending)
		if err != nil {
			return nil, err
		}
		for _, p := range parts {
			urls[p.Index] = p.URL
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for _, index := range pending {
		g.Go(func() error {
			data, err := readPart(r, sp.plan, index)
			if err != nil {
				return err
			}

			if sp.strategy == domain.StorageStrategyPresigned {
				url, ok := urls[index]
				if !ok {
					return fmt.Errorf("no presigned url for part %d", index)
				}
				if _, err := c.PutPresigned(gctx, url, data); err != nil {
					return fmt.Errorf("part %d: %w", index, err)
				}
			} else {
				receipt, err := c.UploadPart(gctx, sp.id, index, data)
				if err != nil {
					return fmt.Errorf("part %d: %w", index, err)
				}
				if local := claims[index].Checksum; receipt.Checksum != local {
					return fmt.Errorf("part %d: server checksum %s does not match local %s", index, receipt.Checksum, local)
				}
			}

			c.progress(opts, sent.Add(int64(len(data))), size)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	committed, err := c.Commit(ctx, sp.id, claims)
	if err != nil {
		return nil, err
	}

	return &UploadResult{
		UploadID: sp.id,
		FileID:   committed.FileID,
		Location: committed.Location,
		ETag:     committed.ETag,
		Skipped:  skipped,
	}, nil
}

func (c *Client) openSession(ctx context.Context, size int64, opts UploadOptions) (*sessionPlan, error) {
	if opts.ResumeID != uuid.Nil {
		session, err := c.GetUpload(ctx, opts.ResumeID)
		if err != nil {
			return nil, err
		}
		if session.Size != size {
			return nil, fmt.Errorf("%w: session %s expects %d bytes, got %d", domain.ErrValidation, session.UploadID, session.Size, size)
		}
		recorded := make(map[int]string, len(session.UploadedParts))
		for _, p := range session.UploadedParts {
			recorded[p.Index] = p.Checksum
		}
		return &sessionPlan{
			id:       session.UploadID,
			plan:     chunk.Plan{FileSize: session.Size, ChunkSize: session.ChunkSize, TotalChunks: session.TotalChunks},
			strategy: session.StorageStrategy,
			recorded: recorded,
		}, nil
	}

	created, err := c.CreateUpload(ctx, upload.V1CreateUploadRequest{
		FileName:         opts.FileName,
		FileSize:         &size,
		MimeType:         opts.MimeType,
		DesiredChunkSize: opts.ChunkSize,
		StorageStrategy:  string(opts.Strategy),
	})
	if err != nil {
		return nil, err
	}
	return &sessionPlan{
		id:       created.UploadID,
		plan:     chunk.Plan{FileSize: size, ChunkSize: created.ChunkSize, TotalChunks: created.TotalChunks},
		strategy: created.StorageStrategy,
		recorded: map[int]string{},
	}, nil
}

func readPart(r io.ReaderAt, plan chunk.Plan, index int) ([]byte, error) {
	data := make([]byte, plan.PartSize(index))
	n, err := r.ReadAt(data, plan.Offset(index))
	if n == len(data) {
		return data, nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return nil, fmt.Errorf("read part %d: %w", index, err)
}

func (c *Client) progress(opts UploadOptions, sent, total int64) {
	if opts.Progress != nil {
		opts.Progress(sent, total)
	}
}
