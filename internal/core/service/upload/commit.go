package upload

import (
	"context"
	"fmt"
	"time"
	"upload-coordinator/internal/core/domain"

	"github.com/google/uuid"
)

// CommitSession cross-checks every part against the client claims and finalizes the object.
// Nothing is finalized upstream unless every index in range is recorded with a matching checksum.
func (f *uploadService) CommitSession(ctx context.Context, id uuid.UUID, parts []domain.ClaimedPart) (*domain.CommitResult, error) {

	session, err := f.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := session.EnsureOpen(); err != nil {
		return nil, err
	}

	claims := make(map[int]string, len(parts))
	for _, p := range parts {
		if !session.InRange(p.Index) {
			return nil, fmt.Errorf("%w: claimed index %d not in [0,%d)", domain.ErrInvalidPartIndex, p.Index, session.TotalChunks)
		}
		if _, dup := claims[p.Index]; dup {
			return nil, fmt.Errorf("%w: duplicate part index %d", domain.ErrValidation, p.Index)
		}
		claims[p.Index] = p.Checksum
	}

	rejected := map[int]bool{}
	if session.StorageStrategy == domain.StorageStrategyPresigned {
		session, rejected, err = f.confirmPresignedParts(ctx, session, claims)
		if err != nil {
			return nil, err
		}
	}

	if invalid := verifyParts(session, claims, rejected); invalid != nil {
		f.logger.Info("commit rejected",
			"upload_id", id,
			"missing", invalid.Missing,
			"mismatched", invalid.Mismatched)
		return nil, invalid
	}

	ordered := make([]domain.CompletedPart, 0, session.TotalChunks)
	for index := 0; index < session.TotalChunks; index++ {
		ordered = append(ordered, domain.CompletedPart{
			PartNumber: index + 1,
			ETag:       session.UploadedParts[index].ETag,
		})
	}

	object, err := f.objects.CompleteMultipart(ctx, session.Multipart, ordered)
	if err != nil {
		return nil, domain.Upstream("complete multipart", err)
	}

	fileID := object.Key
	if fileID == "" {
		fileID = session.Multipart.Key
	}

	// TODO: persist a commit-acknowledged marker before this update so a crash here can be reconciled on restart
	committed, err := f.update(ctx, id, func(s *domain.UploadSession) error {
		if err := s.Transition(domain.UploadStatusCommitted, time.Now().UTC()); err != nil {
			return err
		}
		s.FileID = fileID
		return nil
	})
	if err != nil {
		f.logger.Error("object finalized but session commit not persisted",
			"upload_id", id,
			"key", fileID,
			"error", err)
		return nil, err
	}

	f.logger.Info("upload session committed", "upload_id", id, "key", fileID, "parts", len(ordered))
	f.publish(ctx, domain.EventTypeSessionCommitted, committed)

	return &domain.CommitResult{FileID: fileID, Location: object.Location, ETag: object.ETag}, nil
}

// verifyParts returns nil when every index in range has a record and a claim with equal checksums
func verifyParts(session *domain.UploadSession, claims map[int]string, rejected map[int]bool) *domain.PartsInvalidError {
	missing := []int{}
	mismatched := []int{}

	for index := 0; index < session.TotalChunks; index++ {
		if rejected[index] {
			mismatched = append(mismatched, index)
			continue
		}
		claim, claimed := claims[index]
		record, recorded := session.UploadedParts[index]
		if !claimed || !recorded {
			missing = append(missing, index)
			continue
		}
		if claim != record.Checksum {
			mismatched = append(mismatched, index)
		}
	}

	if len(missing) == 0 && len(mismatched) == 0 {
		return nil
	}
	return &domain.PartsInvalidError{Missing: missing, Mismatched: mismatched}
}

// confirmPresignedParts records the parts the object store really holds for a presigned session.
// A listed part is accepted when its size matches the plan and, if the store reports a SHA-256,
// that checksum matches the claim. Rejected indices are returned separately.
func (f *uploadService) confirmPresignedParts(ctx context.Context, session *domain.UploadSession, claims map[int]string) (*domain.UploadSession, map[int]bool, error) {

	stored, err := f.objects.ListParts(ctx, session.Multipart)
	if err != nil {
		return nil, nil, domain.Upstream("list parts", err)
	}

	plan := session.Plan()
	confirmed := make(map[int]domain.PartRecord, len(stored))
	rejected := map[int]bool{}

	for _, part := range stored {
		index := part.PartNumber - 1
		claim, ok := claims[index]
		if !session.InRange(index) || !ok {
			continue
		}
		if part.Size != plan.PartSize(index) {
			rejected[index] = true
			continue
		}
		if part.ChecksumSHA256 != "" {
			storeSum, convErr := domain.ChecksumFromBase64(part.ChecksumSHA256)
			if convErr != nil || storeSum != claim {
				rejected[index] = true
				continue
			}
		}
		confirmed[index] = domain.PartRecord{ETag: part.ETag, Checksum: claim, Size: part.Size}
	}

	if len(confirmed) == 0 {
		return session, rejected, nil
	}

	updated, err := f.update(ctx, session.ID, func(s *domain.UploadSession) error {
		now := time.Now().UTC()
		for index, record := range confirmed {
			if err := s.MergePart(index, record, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return updated, rejected, nil
}
