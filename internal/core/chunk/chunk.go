// Package chunk derives how a file is split into upload parts.
//
// The computation is deterministic so a client can reproduce the server plan
// locally before it sends any byte.
package chunk

import "github.com/docker/go-units"

const (
	DefaultChunkSize   int64 = 5 * units.MiB
	LargeFileChunkSize int64 = 16 * units.MiB
	LargeFileThreshold int64 = 500 * units.MiB
	MinChunkSize       int64 = 256 * units.KiB
	MaxChunkSize       int64 = 50 * units.MiB
)

// Policy holds the constants of the chunk size computation
type Policy struct {
	DefaultChunkSize   int64
	LargeFileChunkSize int64
	LargeFileThreshold int64
	MinChunkSize       int64
	MaxChunkSize       int64
}

// DefaultPolicy is the policy shared by the server and its clients
var DefaultPolicy = Policy{
	DefaultChunkSize:   DefaultChunkSize,
	LargeFileChunkSize: LargeFileChunkSize,
	LargeFileThreshold: LargeFileThreshold,
	MinChunkSize:       MinChunkSize,
	MaxChunkSize:       MaxChunkSize,
}

// Plan is the split of a file into parts
type Plan struct {
	FileSize    int64
	ChunkSize   int64
	TotalChunks int
}

// Compute returns the plan of DefaultPolicy
func Compute(fileSize int64, desiredChunkSize int64) Plan {
	return DefaultPolicy.Compute(fileSize, desiredChunkSize)
}

// Compute returns the plan for fileSize, desiredChunkSize <= 0 means no preference
func (p Policy) Compute(fileSize int64, desiredChunkSize int64) Plan {
	if fileSize < 0 {
		fileSize = 0
	}

	size := desiredChunkSize
	if size <= 0 {
		size = p.DefaultChunkSize
		if fileSize >= p.LargeFileThreshold {
			size = p.LargeFileChunkSize
		}
	}
	size = clamp(size, p.MinChunkSize, p.MaxChunkSize)

	return Plan{
		FileSize:    fileSize,
		ChunkSize:   size,
		TotalChunks: Count(fileSize, size),
	}
}

// Count returns ceil(fileSize / chunkSize)
func Count(fileSize int64, chunkSize int64) int {
	if fileSize <= 0 || chunkSize <= 0 {
		return 0
	}
	return int((fileSize + chunkSize - 1) / chunkSize)
}

// Offset returns the first byte of part index
func (p Plan) Offset(index int) int64 {
	return int64(index) * p.ChunkSize
}

// PartSize returns the expected length of part index, 0 when out of range
func (p Plan) PartSize(index int) int64 {
	if index < 0 || index >= p.TotalChunks {
		return 0
	}
	if index == p.TotalChunks-1 {
		return p.FileSize - p.Offset(index)
	}
	return p.ChunkSize
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
