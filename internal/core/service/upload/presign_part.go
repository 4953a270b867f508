package upload

import (
	"context"
	"fmt"
	"time"
	"upload-coordinator/internal/core/domain"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const presignConcurrency = 8

// PresignPart returns a direct upload URL for one part of a presigned session
func (f *uploadService) PresignPart(ctx context.Context, id uuid.UUID, index int) (*domain.PresignedPart, error) {
	parts, err := f.PresignParts(ctx, id, []int{index})
	if err != nil {
		return nil, err
	}
	return &parts[0], nil
}

// PresignParts returns direct upload URLs for several parts, in the requested order
func (f *uploadService) PresignParts(ctx context.Context, id uuid.UUID, indices []int) ([]domain.PresignedPart, error) {

	if len(indices) == 0 {
		return nil, fmt.Errorf("%w: no part index requested", domain.ErrValidation)
	}

	session, err := f.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := session.EnsureOpen(); err != nil {
		return nil, err
	}
	if session.StorageStrategy != domain.StorageStrategyPresigned {
		return nil, fmt.Errorf("%w: session %s uses %s uploads", domain.ErrStrategyMismatch, id, session.StorageStrategy)
	}
	for _, index := range indices {
		if !session.InRange(index) {
			return nil, fmt.Errorf("%w: index %d not in [0,%d)", domain.ErrInvalidPartIndex, index, session.TotalChunks)
		}
	}

	ttl := f.uploadCfg.PresignTTL
	parts := make([]domain.PresignedPart, len(indices))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(presignConcurrency)
	for i, index := range indices {
		g.Go(func() error {
			issuedAt := time.Now().UTC()
			url, err := f.objects.PresignPart(gctx, session.Multipart, index+1, ttl)
			if err != nil {
				return domain.Upstream("presign part", err)
			}
			parts[i] = domain.PresignedPart{Index: index, URL: url, ExpiresAt: issuedAt.Add(ttl)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return parts, nil
}
