package service

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/viper"
)

// Anything bigger than this gets rejected before decoding
const maxImagePixels = 40_000_000

// WebP decoding is registered by the encoder package
var acceptedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

type ImageProcessor struct {
	Width   int
	Quality float32
}

func NewImageProcessor() *ImageProcessor {
	return &ImageProcessor{
		Width:   viper.GetInt("upload.image_width"),
		Quality: float32(viper.GetInt("upload.image_quality")),
	}
}

// Process resizes raw to the configured width, keeping the aspect ratio, and
// encodes the result as WebP
func (p *ImageProcessor) Process(raw []byte) ([]byte, error) {
	mime := mimetype.Detect(raw)
	if !mimetype.EqualsAny(mime.String(), acceptedImageTypes...) {
		return nil, fmt.Errorf("%w, unsupported type %s", ErrInvalidImage, mime.String())
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w, %w", ErrInvalidImage, err)
	}

	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxImagePixels {
		return nil, fmt.Errorf("%w, bad dimensions %dx%d", ErrInvalidImage, cfg.Width, cfg.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w, %w", ErrInvalidImage, err)
	}

	resized := imaging.Resize(img, p.Width, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, resized, &webp.Options{Quality: p.Quality}); err != nil {
		return nil, fmt.Errorf("failed to encode webp, %w", err)
	}

	return buf.Bytes(), nil
}

// readLimited reads at most limit bytes from r and fails if there is more
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}

	if int64(len(b)) > limit {
		return nil, fmt.Errorf("%w, bigger than %d bytes", ErrInvalidImage, limit)
	}

	return b, nil
}
