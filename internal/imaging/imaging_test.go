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
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{200, 40, 40, 255})
		}
	}

	var buf bytes.Buffer
	var err error
	if asPNG {
		err = png.Encode(&buf, img)
	} else {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	}
	if err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func decodeResult(t *testing.T, icon *Icon) image.Image {
	t.Helper()

	img, format, err := image.Decode(bytes.NewReader(icon.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if format != "png" || icon.MIME != "image/png" {
		t.Errorf("result format = %s (%s), want png", format, icon.MIME)
	}
	return img
}

func TestProcessIconAcceptsJPEGAndPNG(t *testing.T) {
	for _, asPNG := range []bool{false, true} {
		icon, err := ProcessIcon(bytes.NewReader(encodeTestImage(t, 64, 64, asPNG)))
		if err != nil {
			t.Fatalf("ProcessIcon(png=%v) error = %v", asPNG, err)
		}
		decodeResult(t, icon)
	}
}

func TestProcessIconDownscalesLargeImages(t *testing.T) {
	icon, err := ProcessIcon(bytes.NewReader(encodeTestImage(t, 1000, 500, true)))
	if err != nil {
		t.Fatalf("ProcessIcon() error = %v", err)
	}

	bounds := decodeResult(t, icon).Bounds()
	if bounds.Dx() != MaxDimension || bounds.Dy() != MaxDimension/2 {
		t.Errorf("result size = %dx%d, want %dx%d",
			bounds.Dx(), bounds.Dy(), MaxDimension, MaxDimension/2)
	}
}

func TestProcessIconKeepsSmallImages(t *testing.T) {
	icon, err := ProcessIcon(bytes.NewReader(encodeTestImage(t, 48, 48, false)))
	if err != nil {
		t.Fatalf("ProcessIcon() error = %v", err)
	}

	bounds := decodeResult(t, icon).Bounds()
	if bounds.Dx() != 48 || bounds.Dy() != 48 {
		t.Errorf("small icon resized to %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestProcessIconRejectsOtherFormats(t *testing.T) {
	if _, err := ProcessIcon(bytes.NewReader([]byte("GIF89a..."))); err == nil {
		t.Error("ProcessIcon() accepted a GIF")
	}
	if _, err := ProcessIcon(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Error("ProcessIcon() accepted garbage")
	}
}
