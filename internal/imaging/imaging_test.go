package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodeTestImage(t *testing.T, w, h int, asPNG bool) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{0, 128, 255, 255})
		}
	}
	var buf bytes.Buffer
	if asPNG {
		if err := png.Encode(&buf, img); err != nil {
			t.Fatalf("encoding test PNG: %v", err)
		}
	} else {
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
			t.Fatalf("encoding test JPEG: %v", err)
		}
	}
	return buf.Bytes()
}

func TestProcessPhotoJPEG(t *testing.T) {
	data := encodeTestImage(t, 120, 80, false)
	photo, err := ProcessPhoto(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ProcessPhoto JPEG: %v", err)
	}
	if photo.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", photo.MIME)
	}
	if photo.Width != 120 || photo.Height != 80 {
		t.Errorf("expected 120x80, got %dx%d", photo.Width, photo.Height)
	}
	if len(photo.Data) == 0 {
		t.Error("expected non-empty data")
	}
}

func TestProcessPhotoPNGConverted(t *testing.T) {
	data := encodeTestImage(t, 100, 100, true)
	photo, err := ProcessPhoto(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ProcessPhoto PNG: %v", err)
	}
	if photo.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg (always stored as JPEG), got %s", photo.MIME)
	}
}

func TestProcessPhotoDownscale(t *testing.T) {
	data := encodeTestImage(t, 3200, 1600, false)
	photo, err := ProcessPhoto(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ProcessPhoto large image: %v", err)
	}

	if photo.Width > MaxDimension || photo.Height > MaxDimension {
		t.Errorf("expected max %d, got %dx%d", MaxDimension, photo.Width, photo.Height)
	}
	// Aspect ratio preserved (2:1).
	if photo.Width != 1600 || photo.Height != 800 {
		t.Errorf("expected 1600x800, got %dx%d", photo.Width, photo.Height)
	}
}

func TestProcessPhotoNotUpscaled(t *testing.T) {
	data := encodeTestImage(t, 64, 48, false)
	photo, err := ProcessPhoto(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ProcessPhoto small image: %v", err)
	}
	if photo.Width != 64 || photo.Height != 48 {
		t.Errorf("small image should not be resized: got %dx%d", photo.Width, photo.Height)
	}
}

func TestProcessPhotoInvalidFormat(t *testing.T) {
	if _, err := ProcessPhoto(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestProcessPhotoGIFRejected(t *testing.T) {
	// GIF magic bytes.
	if _, err := ProcessPhoto(bytes.NewReader([]byte("GIF89a..."))); err == nil {
		t.Error("expected error for GIF")
	}
}
