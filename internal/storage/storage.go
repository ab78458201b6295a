package storage

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// ContentStore is a content-addressable blob store: identical bytes map to
// the same digest, so a Put is idempotent.
type ContentStore interface {
	Put(ctx context.Context, data []byte, label string) (string, error)
}

// FSStore keeps blobs on the local filesystem, sharded by digest prefix.
type FSStore struct {
	Dir string
}

func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage dir: %w", err)
	}
	return &FSStore{Dir: dir}, nil
}

func (s *FSStore) Put(ctx context.Context, data []byte, label string) (string, error) {
	sum := sha1.Sum(data)
	digest := hex.EncodeToString(sum[:])

	dir := filepath.Join(s.Dir, digest[:2])
	path := filepath.Join(dir, digest)

	if _, err := os.Stat(path); err == nil {
		// Same content stored before; nothing to write.
		log.Printf("[storage] object %s already present (%s)", digest, label)
		return digest, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("shard dir: %w", err)
	}

	// Write-then-rename so a crashed write never leaves a partial object
	// under its final name.
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close object: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("rename object: %w", err)
	}

	log.Printf("[storage] stored object %s (%s)", digest, label)
	return digest, nil
}
