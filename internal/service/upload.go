package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"grandeva/store-api/storage"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const maxKeyNameLength = 64

type Uploader struct {
	Store   storage.Store
	Images  *ImageProcessor
	Prefix  string
	MaxSize int64

	// Overridable in tests
	Now func() time.Time
}

func NewUploader(s storage.Store, p *ImageProcessor) *Uploader {
	return &Uploader{
		Store:   s,
		Images:  p,
		Prefix:  viper.GetString("storage.prefix"),
		MaxSize: viper.GetInt64("upload.max_size_bytes"),
		Now:     time.Now,
	}
}

// Do reads the image from r, converts it and stores it. The returned key is
// what has to be deleted to undo the upload.
func (u *Uploader) Do(ctx context.Context, r io.Reader, filename string) (string, error) {
	raw, err := readLimited(r, u.MaxSize)
	if err != nil {
		return "", err
	}

	processed, err := u.Images.Process(raw)
	if err != nil {
		return "", err
	}

	key := u.Key(filename)

	err = u.Store.Put(ctx, key, "image/webp", bytes.NewReader(processed), int64(len(processed)))
	if err != nil {
		return "", fmt.Errorf("%w, %w", ErrUploadFailed, err)
	}

	zap.L().Debug("Image uploaded",
		zap.String("key", key),
		zap.Int("originalSize", len(raw)),
		zap.Int("size", len(processed)),
	)

	return key, nil
}

// Key builds the object key of filename: <prefix><unix millis>-<name>.webp
func (u *Uploader) Key(filename string) string {
	return fmt.Sprintf("%s%d-%s.webp", u.Prefix, u.Now().UnixMilli(), sanitizeName(filename))
}

func sanitizeName(filename string) string {
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}

	out := strings.Trim(b.String(), "-_")
	if len(out) > maxKeyNameLength {
		out = out[:maxKeyNameLength]
	}

	if out == "" {
		return "image"
	}

	return out
}
