package domain

import (
	"fmt"
	"strings"
	"time"
	"upload-coordinator/internal/core/chunk"

	"github.com/google/uuid"
)

// UploadStatus represents the status of an upload session
type UploadStatus string

const (
	UploadStatusPending   UploadStatus = "pending"
	UploadStatusUploading UploadStatus = "uploading"
	UploadStatusCommitted UploadStatus = "committed"
	UploadStatusAborted   UploadStatus = "aborted"
)

// IsTerminal reports whether no further mutation is allowed
func (s UploadStatus) IsTerminal() bool {
	return s == UploadStatusCommitted || s == UploadStatusAborted
}

// CanTransition reports whether the state machine allows s -> to
func (s UploadStatus) CanTransition(to UploadStatus) bool {
	switch s {
	case UploadStatusPending:
		return to == UploadStatusUploading || to == UploadStatusCommitted || to == UploadStatusAborted
	case UploadStatusUploading:
		return to == UploadStatusPending || to == UploadStatusCommitted || to == UploadStatusAborted
	default:
		return false
	}
}

func (s UploadStatus) valid() bool {
	switch s {
	case UploadStatusPending, UploadStatusUploading, UploadStatusCommitted, UploadStatusAborted:
		return true
	}
	return false
}

// StorageStrategy tells how part bytes reach the object store
type StorageStrategy string

const (
	StorageStrategyProxy     StorageStrategy = "proxy"
	StorageStrategyPresigned StorageStrategy = "presigned"
)

// ParseStorageStrategy parses a strategy, empty means proxy
func ParseStorageStrategy(value string) (StorageStrategy, error) {
	switch StorageStrategy(strings.ToLower(strings.TrimSpace(value))) {
	case "", StorageStrategyProxy:
		return StorageStrategyProxy, nil
	case StorageStrategyPresigned:
		return StorageStrategyPresigned, nil
	default:
		return "", fmt.Errorf("%w: unknown storage strategy %q", ErrValidation, value)
	}
}

// MultipartHandle references a multipart upload in the object store
type MultipartHandle struct {
	Key      string `json:"key"`
	UploadID string `json:"uploadId"`
}

// PartRecord is what the coordinator knows about one received part
type PartRecord struct {
	ETag     string `json:"etag"`
	Checksum string `json:"checksum"`
	Size     int64  `json:"size"`
}

// UploadSession represents an upload session
type UploadSession struct {
	ID              uuid.UUID          `json:"uploadId"`
	FileName        string             `json:"fileName"`
	Size            int64              `json:"size"`
	MimeType        string             `json:"mimeType"`
	ChunkSize       int64              `json:"chunkSize"`
	TotalChunks     int                `json:"totalChunks"`
	StorageStrategy StorageStrategy    `json:"storageStrategy"`
	Status          UploadStatus       `json:"status"`
	ExpiresAt       time.Time          `json:"expiresAt"`
	Multipart       MultipartHandle    `json:"multipart"`
	UploadedParts   map[int]PartRecord `json:"uploadedParts"`
	FileID          string             `json:"fileId,omitempty"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// Plan returns the chunk plan the session was created with
func (u *UploadSession) Plan() chunk.Plan {
	return chunk.Plan{FileSize: u.Size, ChunkSize: u.ChunkSize, TotalChunks: u.TotalChunks}
}

// InRange reports whether index belongs to [0, TotalChunks)
func (u *UploadSession) InRange(index int) bool {
	return index >= 0 && index < u.TotalChunks
}

// EnsureOpen fails with ErrSessionClosed once the session is committed or aborted
func (u *UploadSession) EnsureOpen() error {
	if u.Status.IsTerminal() {
		return fmt.Errorf("%w: session %s is %s", ErrSessionClosed, u.ID, u.Status)
	}
	return nil
}

// Transition moves the session to status to
func (u *UploadSession) Transition(to UploadStatus, now time.Time) error {
	if u.Status == to {
		return nil
	}
	if !u.Status.CanTransition(to) {
		if u.Status.IsTerminal() {
			return fmt.Errorf("%w: session %s is %s", ErrSessionClosed, u.ID, u.Status)
		}
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, u.Status, to)
	}
	u.Status = to
	u.UpdatedAt = now
	return nil
}

// MergePart records a received part and moves a pending session to uploading
func (u *UploadSession) MergePart(index int, record PartRecord, now time.Time) error {
	if err := u.EnsureOpen(); err != nil {
		return err
	}
	if !u.InRange(index) {
		return fmt.Errorf("%w: index %d not in [0,%d)", ErrPartNotFound, index, u.TotalChunks)
	}
	if u.UploadedParts == nil {
		u.UploadedParts = make(map[int]PartRecord)
	}
	u.UploadedParts[index] = record
	u.UpdatedAt = now
	if u.Status == UploadStatusPending {
		return u.Transition(UploadStatusUploading, now)
	}
	return nil
}

// Clone returns a deep copy
func (u *UploadSession) Clone() *UploadSession {
	c := *u
	if u.UploadedParts != nil {
		c.UploadedParts = make(map[int]PartRecord, len(u.UploadedParts))
		for k, v := range u.UploadedParts {
			c.UploadedParts[k] = v
		}
	}
	return &c
}

// Validate checks the record invariants
func (u *UploadSession) Validate() error {
	if u.ID == uuid.Nil {
		return fmt.Errorf("%w: missing upload id", ErrValidation)
	}
	if strings.TrimSpace(u.FileName) == "" {
		return fmt.Errorf("%w: missing file name", ErrValidation)
	}
	if u.Size < 0 {
		return fmt.Errorf("%w: negative size %d", ErrValidation, u.Size)
	}
	if u.ChunkSize <= 0 {
		return fmt.Errorf("%w: invalid chunk size %d", ErrValidation, u.ChunkSize)
	}
	if u.TotalChunks != chunk.Count(u.Size, u.ChunkSize) {
		return fmt.Errorf("%w: total chunks %d does not match size %d / chunk size %d", ErrValidation, u.TotalChunks, u.Size, u.ChunkSize)
	}
	if _, err := ParseStorageStrategy(string(u.StorageStrategy)); err != nil || u.StorageStrategy == "" {
		return fmt.Errorf("%w: invalid storage strategy %q", ErrValidation, u.StorageStrategy)
	}
	if !u.Status.valid() {
		return fmt.Errorf("%w: invalid status %q", ErrValidation, u.Status)
	}
	if u.Multipart.Key == "" || u.Multipart.UploadID == "" {
		return fmt.Errorf("%w: missing multipart handle", ErrValidation)
	}
	for index := range u.UploadedParts {
		if !u.InRange(index) {
			return fmt.Errorf("%w: uploaded part %d not in [0,%d)", ErrValidation, index, u.TotalChunks)
		}
	}
	return nil
}

// NewSession is the input of a session creation
type NewSession struct {
	FileName         string
	Size             int64
	MimeType         string
	DesiredChunkSize int64
	Strategy         StorageStrategy
}

// ClaimedPart is a part as the client reports it at commit time
type ClaimedPart struct {
	Index    int
	Checksum string
}

// CompletedPart is one entry of the ordered finalize list
type CompletedPart struct {
	PartNumber int
	ETag       string
}

// StoredPart is a part as listed by the object store
type StoredPart struct {
	PartNumber     int
	ETag           string
	Size           int64
	ChecksumSHA256 string
}

// CompletedObject is the object store answer to a finalize
type CompletedObject struct {
	Key      string
	Location string
	ETag     string
}

// PresignedPart is a direct upload URL for one part
type PresignedPart struct {
	Index     int
	URL       string
	ExpiresAt time.Time
}

// PartReceipt is returned after a proxied part upload
type PartReceipt struct {
	Index    int
	ETag     string
	Checksum string
}

// CommitResult is returned after a successful commit
type CommitResult struct {
	FileID   string
	Location string
	ETag     string
}
