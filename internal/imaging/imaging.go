// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging validates and recompresses images placed on templates.
// Validation runs before any byte reaches object storage: a size
// ceiling, a MIME allow-list, and a dimension ceiling. Images that pass
// are re-encoded as JPEG at a configurable quality to cap stored size.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"net/http"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Config bounds what an uploaded element image may be.
type Config struct {
	MaxSizeBytes int64
	AllowedTypes []string
	MaxWidth     int
	MaxHeight    int
	Quality      int // JPEG re-encode quality, 1-100; 0 disables recompression
}

// DefaultConfig mirrors the editor's upload limits: 5 MB, JPEG/PNG/WebP,
// 2000x2000 pixels, recompressed at quality 80.
func DefaultConfig() Config {
	return Config{
		MaxSizeBytes: 5 << 20,
		AllowedTypes: []string{"image/jpeg", "image/png", "image/webp"},
		MaxWidth:     2000,
		MaxHeight:    2000,
		Quality:      80,
	}
}

// ValidationError is a pre-upload rejection with a user-facing message.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Result is a validated, possibly recompressed image ready for upload.
type Result struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// Process validates data against cfg and recompresses it. It returns a
// *ValidationError for every rejection so callers can distinguish bad
// input from processing failures.
func Process(data []byte, cfg Config) (*Result, error) {
	if int64(len(data)) > cfg.MaxSizeBytes {
		return nil, &ValidationError{Reason: fmt.Sprintf(
			"file size exceeds maximum allowed size of %dMB", cfg.MaxSizeBytes/(1<<20))}
	}

	contentType := sniffType(data)
	if !typeAllowed(contentType, cfg.AllowedTypes) {
		return nil, &ValidationError{Reason: fmt.Sprintf(
			"file type %s is not allowed", contentType)}
	}

	imgCfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &ValidationError{Reason: "failed to process image"}
	}
	if cfg.MaxWidth > 0 && imgCfg.Width > cfg.MaxWidth {
		return nil, &ValidationError{Reason: fmt.Sprintf(
			"image width (%dpx) exceeds maximum allowed width (%dpx)", imgCfg.Width, cfg.MaxWidth)}
	}
	if cfg.MaxHeight > 0 && imgCfg.Height > cfg.MaxHeight {
		return nil, &ValidationError{Reason: fmt.Sprintf(
			"image height (%dpx) exceeds maximum allowed height (%dpx)", imgCfg.Height, cfg.MaxHeight)}
	}

	if cfg.Quality <= 0 || cfg.Quality >= 100 {
		return &Result{Data: data, ContentType: contentType, Width: imgCfg.Width, Height: imgCfg.Height}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode: %w", err)
	}

	// Re-encode through an RGBA buffer so every source format lands as
	// baseline JPEG.
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: cfg.Quality}); err != nil {
		return nil, fmt.Errorf("imaging: encode: %w", err)
	}

	// Recompression only helps when it actually shrinks the payload.
	if buf.Len() >= len(data) {
		return &Result{Data: data, ContentType: contentType, Width: imgCfg.Width, Height: imgCfg.Height}, nil
	}

	return &Result{
		Data:        buf.Bytes(),
		ContentType: "image/jpeg",
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
	}, nil
}

// Thumbnail scales an already-validated image down to maxWidth,
// preserving aspect ratio, and encodes it as JPEG. Returns nil if the
// image is already narrow enough.
func Thumbnail(data []byte, maxWidth, quality int) ([]byte, error) {
	imgCfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode config: %w", err)
	}
	if imgCfg.Width <= maxWidth {
		return nil, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode: %w", err)
	}

	bounds := img.Bounds()
	ratio := float64(maxWidth) / float64(bounds.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, int(float64(bounds.Dy())*ratio)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("imaging: encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// sniffType detects the MIME type from the first 512 bytes.
func sniffType(data []byte) string {
	n := len(data)
	if n > 512 {
		n = 512
	}
	return http.DetectContentType(data[:n])
}

func typeAllowed(contentType string, allowed []string) bool {
	for _, t := range allowed {
		if t == contentType {
			return true
		}
	}
	return false
}
