// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package blob

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/png"

	"github.com/mr-tron/base58"
	"github.com/nfnt/resize"
)

// Upload limits
const (
	MaxUploadBytes = 5 << 20
	MaxImageSide   = 800
	jpegQuality    = 85
)

// URLPrefix is where stored blobs are served.
const URLPrefix = "/uploads/"

var (
	ErrTooLarge   = errors.New("upload exceeds 5MB")
	ErrNotImage   = errors.New("upload is not a supported image")
	ErrForeignURL = errors.New("url does not belong to this store")
)

// Store keeps uploaded files and hands back the URL they are served at.
type Store interface {
	Put(ctx context.Context, prefix, name string, r io.Reader) (string, error)
	PutImage(ctx context.Context, prefix, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

// LocalStore writes blobs under a directory on disk.
type LocalStore struct {
	dir string
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Dir is the directory served at URLPrefix.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Put stores r as-is.
func (s *LocalStore) Put(ctx context.Context, prefix, name string, r io.Reader) (string, error) {
	data, err := readLimited(r)
	if err != nil {
		return "", err
	}
	return s.write(prefix, name, data)
}

// PutImage decodes r, shrinks it to fit MaxImageSide square and stores it
// as JPEG.
func (s *LocalStore) PutImage(ctx context.Context, prefix, name string, r io.Reader) (string, error) {
	data, err := readLimited(r)
	if err != nil {
		return "", err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	thumb := resize.Thumbnail(MaxImageSide, MaxImageSide, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}

	base := strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
	return s.write(prefix, base, buf.Bytes())
}

// Delete removes the blob behind url. Missing files are not an error.
func (s *LocalStore) Delete(ctx context.Context, url string) error {
	key, ok := strings.CutPrefix(url, URLPrefix)
	if !ok || key == "" {
		return ErrForeignURL
	}
	clean := path.Clean("/" + key)[1:]
	if clean != key {
		return ErrForeignURL
	}

	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(clean)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

func (s *LocalStore) write(prefix, name string, data []byte) (string, error) {
	key, err := newKey(prefix, name)
	if err != nil {
		return "", err
	}

	full := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create blob dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	return URLPrefix + key, nil
}

// newKey builds "<prefix>/<random>_<name>".
func newKey(prefix, name string) (string, error) {
	b := make([]byte, 9)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate blob key: %w", err)
	}
	return sanitize(prefix) + "/" + base58.Encode(b) + "_" + sanitize(name), nil
}

// sanitize keeps letters, digits, dot, dash and underscore.
func sanitize(s string) string {
	s = filepath.Base(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if out == "" {
		return "file"
	}
	return out
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}
