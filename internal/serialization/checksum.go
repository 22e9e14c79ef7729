package serialization

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/pkg/errors"
)

// ComputeChecksum computes SHA-256 checksum of data.
func ComputeChecksum(data []byte) [ChecksumSize]byte {
	return sha256.Sum256(data)
}

// ComputeChecksumReader computes the SHA-256 checksum of everything read from r.
func ComputeChecksumReader(r io.Reader) ([ChecksumSize]byte, error) {
	var sum [ChecksumSize]byte
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return sum, errors.Wrap(err, "checksum")
	}
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

// ValidateChecksum compares computed checksum against stored checksum.
func ValidateChecksum(computed, stored [ChecksumSize]byte) error {
	if computed != stored {
		return errors.Wrapf(ErrChecksumMismatch, "stored %s, computed %s",
			hex.EncodeToString(stored[:8]), hex.EncodeToString(computed[:8]))
	}
	return nil
}
