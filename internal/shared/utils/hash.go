package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"sort"

	"golang.org/x/crypto/blake2b"

	"github.com/GriffinCanCode/playground/internal/shared/types"
)

// HashAlgorithm represents the hashing algorithm to use
type HashAlgorithm string

const (
	BLAKE2b256 HashAlgorithm = "blake2b-256"
	SHA256     HashAlgorithm = "sha256"
)

// Hasher produces hex digests of preview documents and file sets
type Hasher struct {
	algorithm HashAlgorithm
}

// NewHasher creates a new hasher with the specified algorithm
func NewHasher(algorithm HashAlgorithm) *Hasher {
	return &Hasher{algorithm: algorithm}
}

// DefaultHasher returns a BLAKE2b-256 hasher
func DefaultHasher() *Hasher {
	return NewHasher(BLAKE2b256)
}

func (h *Hasher) new() hash.Hash {
	switch h.algorithm {
	case SHA256:
		return sha256.New()
	default:
		// blake2b.New256 only fails for oversized keys
		d, _ := blake2b.New256(nil)
		return d
	}
}

// Hash computes a hash of the input data
func (h *Hasher) Hash(data []byte) string {
	d := h.new()
	d.Write(data)
	return hex.EncodeToString(d.Sum(nil))
}

// HashString computes a hash of a string
func (h *Hasher) HashString(s string) string {
	return h.Hash([]byte(s))
}

// HashFiles hashes a file set independently of its order. Each record is
// length-prefixed so that path/content boundaries cannot collide.
func (h *Hasher) HashFiles(files []types.ProjectFile) string {
	sorted := make([]types.ProjectFile, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	d := h.new()
	var lenBuf [8]byte
	write := func(s string) {
		n := uint64(len(s))
		for i := 0; i < 8; i++ {
			lenBuf[i] = byte(n >> (8 * i))
		}
		d.Write(lenBuf[:])
		d.Write([]byte(s))
	}
	for _, f := range sorted {
		write(f.Path)
		write(f.Content)
	}
	return hex.EncodeToString(d.Sum(nil))
}

// Short returns the first 8 characters of a digest for display
func Short(digest string) string {
	if len(digest) < 8 {
		return digest
	}
	return digest[:8]
}
