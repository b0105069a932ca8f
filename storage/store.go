// Package storage contains the blob stores product images are kept in
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/viper"
)

var ErrNotFound = errors.New("object not found")

// Store is implemented by every blob backend
type Store interface {
	// Put uploads body under key, replacing any existing object
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every object under prefix and returns how many were removed
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	// URL returns the public link of key
	URL(key string) string
}

// New returns the backend selected by storage.type
func New(ctx context.Context) (Store, error) {
	var (
		s   Store
		err error
	)

	switch t := viper.GetString("storage.type"); t {
	case "s3":
		s, err = NewS3(ctx)
	case "r2":
		s, err = NewR2(ctx)
	case "firebase":
		s, err = NewFirebase(ctx)
	case "memory":
		s = NewMemory(fmt.Sprintf("http://localhost:%d/blobs", viper.GetInt("host.port")))
	default:
		return nil, fmt.Errorf("unsupported storage type %q", t)
	}
	if err != nil {
		return nil, err
	}

	return s, nil
}
