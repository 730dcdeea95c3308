// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package blob

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestPutImage_DownscalesToJPEG(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	url, err := store.PutImage(context.Background(), "menu", "big dosa.png", bytes.NewReader(pngBytes(t, 1600, 400)))
	if err != nil {
		t.Fatalf("PutImage() error = %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/menu/") || !strings.HasSuffix(url, "_big_dosa.jpg") {
		t.Errorf("unexpected url %q", url)
	}

	f, err := os.Open(filepath.Join(store.Dir(), strings.TrimPrefix(url, URLPrefix)))
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	defer f.Close()

	img, err := jpeg.Decode(f)
	if err != nil {
		t.Fatalf("stored file is not JPEG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 800 || b.Dy() != 200 {
		t.Errorf("expected 800x200 after downscale, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestPutImage_RejectsNonImage(t *testing.T) {
	store, _ := NewLocalStore(t.TempDir())
	_, err := store.PutImage(context.Background(), "menu", "x.png", strings.NewReader("not an image"))
	if !errors.Is(err, ErrNotImage) {
		t.Errorf("PutImage() error = %v, want ErrNotImage", err)
	}
}

func TestPut_TooLarge(t *testing.T) {
	store, _ := NewLocalStore(t.TempDir())
	big := bytes.NewReader(make([]byte, MaxUploadBytes+1))
	if _, err := store.Put(context.Background(), "complaints", "a.bin", big); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Put() error = %v, want ErrTooLarge", err)
	}
}

func TestDelete(t *testing.T) {
	store, _ := NewLocalStore(t.TempDir())
	ctx := context.Background()

	url, err := store.Put(ctx, "complaints", "note.txt", strings.NewReader("hi"))
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, url); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	// Already gone is fine
	if err := store.Delete(ctx, url); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}

	for _, bad := range []string{"https://elsewhere/x.jpg", "/uploads/../etc/passwd", "/uploads/"} {
		if err := store.Delete(ctx, bad); !errors.Is(err, ErrForeignURL) {
			t.Errorf("Delete(%q) error = %v, want ErrForeignURL", bad, err)
		}
	}
}

func TestSanitize(t *testing.T) {
	tests := map[string]string{
		"dosa.png":       "dosa.png",
		"../../etc/pass": "pass",
		"..":             "file",
		"a b&c.jpg":      "a_b_c.jpg",
	}
	for in, want := range tests {
		if got := sanitize(in); got != want {
			t.Errorf("sanitize(%q) = %q, want %q", in, got, want)
		}
	}
}
