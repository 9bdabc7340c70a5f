// Package imaging validates, normalises and downloads recipe photos
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
)

const (
	// DefaultQuality matches the compression used for photos saved by the app
	DefaultQuality = 80
	// DefaultMaxPixels caps decoded images at roughly a 40 megapixel photo
	DefaultMaxPixels = 40_000_000
)

var (
	// ErrEmpty is returned for a missing image
	ErrEmpty = errors.New("image is empty")
	// ErrUnsupported is returned when the bytes are not a decodable JPEG, PNG or GIF
	ErrUnsupported = errors.New("image format is not supported")
	// ErrTooLarge is returned when the declared dimensions exceed the pixel cap
	ErrTooLarge = errors.New("image dimensions are too large")
)

// Info describes a decoded image header
type Info struct {
	Format string
	Width  int
	Height int
}

// Sniff decodes the image header and reports its format and dimensions
func Sniff(data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, ErrEmpty
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// NormalizeJPEG re-encodes any supported image as a JPEG at the given
// quality. Transparent regions are flattened onto white. The header is
// checked against maxPixels before any pixel data is decoded; a
// non-positive maxPixels means DefaultMaxPixels.
func NormalizeJPEG(data []byte, quality, maxPixels int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	info, err := Sniff(data)
	if err != nil {
		return nil, err
	}
	if info.Width <= 0 || info.Height <= 0 || info.Height > maxPixels/info.Width {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, info.Width, info.Height, maxPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	bounds := src.Bounds()
	flat := image.NewRGBA(bounds)
	draw.Draw(flat, bounds, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(flat, bounds, src, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
