package pubstatic

import (
	"bytes"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestDownscaleImageKeepsFormatAndAspect(t *testing.T) {
	out, ok, err := downscaleImage(encodeJPEG(t, 200, 100), 50)
	if err != nil {
		t.Fatalf("downscaleImage failed: %v", err)
	}
	if !ok {
		t.Fatal("expected the image to be resized")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode resized: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("format = %q, want jpeg", format)
	}
	if cfg.Width != 50 || cfg.Height != 25 {
		t.Errorf("size = %dx%d, want 50x25", cfg.Width, cfg.Height)
	}
}

func TestDownscaleImageNarrowUntouched(t *testing.T) {
	_, ok, err := downscaleImage(encodeJPEG(t, 40, 40), 50)
	if err != nil {
		t.Fatalf("downscaleImage failed: %v", err)
	}
	if ok {
		t.Error("narrow image should be copied as is")
	}
}

func TestDownscaleImageInvalid(t *testing.T) {
	if _, _, err := downscaleImage([]byte("not an image"), 50); err == nil {
		t.Error("expected decode error")
	}
}

func TestCopyStaticDirMissingSource(t *testing.T) {
	copied, resized, err := copyStaticDir(filepath.Join(t.TempDir(), "missing"), t.TempDir(), 100)
	if err != nil {
		t.Fatalf("missing static dir should not fail: %v", err)
	}
	if copied != 0 || resized != 0 {
		t.Errorf("copied=%d resized=%d, want 0", copied, resized)
	}
}

func TestPruneStaticDir(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	for _, rel := range []string{"keep.txt", "style.css", "old/a.txt", "old/deep/b.txt"} {
		if err := os.MkdirAll(filepath.Dir(filepath.Join(dst, rel)), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dst, rel), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(src, "keep.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	removed, err := pruneStaticDir(src, dst, "style.css")
	if err != nil {
		t.Fatalf("pruneStaticDir: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	for rel, want := range map[string]bool{"keep.txt": true, "style.css": true, "old": false} {
		_, err := os.Stat(filepath.Join(dst, rel))
		if got := err == nil; got != want {
			t.Errorf("%s exists = %v, want %v", rel, got, want)
		}
	}
}
