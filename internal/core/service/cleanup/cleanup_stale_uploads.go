package cleanup

import (
	"context"
	"errors"
	"time"
	"upload-coordinator/internal/core/domain"
	"upload-coordinator/internal/core/port"
	"upload-coordinator/internal/core/service/upload"
)

// CleanupStaleUploads purges expired session records when the store needs it,
// then aborts the multipart uploads whose session is gone
func (c *cleanupService) CleanupStaleUploads(ctx context.Context, now time.Time) (domain.CleanupReport, error) {
	var report domain.CleanupReport

	if purger, ok := c.sessions.(port.ExpiredSessionPurger); ok {
		purged, err := purger.PurgeExpired(ctx, now)
		if err != nil {
			c.logger.Error("failed to purge expired sessions", "error", err)
		}
		report.Purged = purged
	}

	stale, err := c.objects.ListStaleMultiparts(ctx, upload.KeyPrefix, now.Add(-c.sessionTTL))
	if err != nil {
		return report, domain.Upstream("list stale multiparts", err)
	}

	for _, handle := range stale {
		if c.stillLive(ctx, handle) {
			report.Skipped++
			continue
		}

		if err := c.objects.AbortMultipart(ctx, handle); err != nil {
			c.logger.Error("failed to abort stale multipart upload", "key", handle.Key, "error", err)
			continue
		}
		report.Aborted++
	}

	c.logger.Info("stale uploads cleanup completed",
		"aborted", report.Aborted,
		"skipped", report.Skipped,
		"purged", report.Purged)
	return report, nil
}

// stillLive reports whether an open session still owns the multipart upload.
// A store error counts as live so nothing is aborted on doubt.
func (c *cleanupService) stillLive(ctx context.Context, handle domain.MultipartHandle) bool {
	id, ok := upload.SessionIDFromKey(handle.Key)
	if !ok {
		return false
	}

	session, err := c.sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return false
		}
		c.logger.Warn("cannot check session of stale upload", "key", handle.Key, "error", err)
		return true
	}

	return !session.Status.IsTerminal() && session.Multipart.UploadID == handle.UploadID
}
