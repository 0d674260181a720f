// Package imaging normalizes uploaded item icons. Icons are rendered at
// thumbnail size in chat embeds, so anything larger is downscaled before it
// reaches the database.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
)

// MaxDimension is the maximum icon width or height after processing.
const MaxDimension = 256

// MaxUploadBytes caps how much of an upload is read before giving up.
const MaxUploadBytes = 4 << 20

// Icon is a processed, storage-ready item icon.
type Icon struct {
	Data []byte
	MIME string
}

var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// ProcessIcon validates an uploaded image by sniffing its bytes, downscales
// it to fit MaxDimension, and re-encodes it as PNG so icon transparency
// survives the round trip.
func ProcessIcon(r io.Reader) (*Icon, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading icon upload: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("icon upload exceeds %d bytes", MaxUploadBytes)
	}

	// Client headers lie; trust the bytes.
	detected := http.DetectContentType(data)
	if !allowedMIME[detected] {
		return nil, fmt.Errorf("unsupported icon format %s (JPEG and PNG accepted)", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding icon: %w", err)
	}

	img = fit(img, MaxDimension)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding icon: %w", err)
	}

	return &Icon{Data: buf.Bytes(), MIME: "image/png"}, nil
}

// fit scales img down so neither dimension exceeds maxDim, preserving
// aspect ratio. Images already within bounds are returned unchanged.
func fit(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := maxDim, maxDim
	if w > h {
		newH = max(h*maxDim/w, 1)
	} else {
		newW = max(w*maxDim/h, 1)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
