package domain

import (
	"crypto/md5" //nolint:gosec // Content identity, not a security boundary.
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Fingerprint is the hex-encoded 128-bit content hash of a document.
// It is the sole identity key of a persisted vector index.
type Fingerprint string

// String returns the hex representation.
func (f Fingerprint) String() string {
	return string(f)
}

// IsValid reports whether f looks like a 128-bit hex digest.
func (f Fingerprint) IsValid() bool {
	if len(f) != md5.Size*2 {
		return false
	}
	_, err := hex.DecodeString(string(f))
	return err == nil
}

// ComputeFingerprint hashes the entire byte slice.
func ComputeFingerprint(content []byte) Fingerprint {
	sum := md5.Sum(content) //nolint:gosec // See import.
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// FingerprintReader hashes everything readable from r.
func FingerprintReader(r io.Reader) (Fingerprint, error) {
	h := md5.New() //nolint:gosec // See import.
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("%w: %w", ErrSourceRead, err)
	}
	return Fingerprint(hex.EncodeToString(h.Sum(nil))), nil
}

// FingerprintFile hashes the full contents of the file at path.
func FingerprintFile(path string) (Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSourceRead, err)
	}
	defer f.Close()
	return FingerprintReader(f)
}
