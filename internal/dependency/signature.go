package dependency

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"doit/internal/errors"
)

// Signature is the recorded state of one dependency file.
//
// ModTime and Size let Modified skip hashing when a file was not touched;
// Digest is what decides when they differ.
type Signature struct {
	ModTime int64  `json:"mtime"`
	Size    int64  `json:"size"`
	Digest  string `json:"digest"`
}

// statSignature returns the metadata half of a signature without reading content.
func statSignature(path string) (Signature, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Signature{}, errors.WithStackTraceAndPrefix(err, "dependency %q", path)
	}
	if info.IsDir() {
		return Signature{}, errors.Errorf("dependency %q is a directory", path)
	}
	return Signature{ModTime: info.ModTime().UnixNano(), Size: info.Size()}, nil
}

// ComputeSignature stats and hashes path.
func ComputeSignature(path string) (Signature, error) {
	sig, err := statSignature(path)
	if err != nil {
		return Signature{}, err
	}
	digest, err := fileDigest(path)
	if err != nil {
		return Signature{}, err
	}
	sig.Digest = digest
	return sig, nil
}

// fileDigest is the sha256 of the file content, hex encoded. Only content
// contributes; metadata is ignored.
func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.WithStackTraceAndPrefix(err, "dependency %q", path)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.WithStackTraceAndPrefix(err, "hashing dependency %q", path)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
