package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	gcs "cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/spf13/viper"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// FirebaseStore keeps objects in the default bucket of a Firebase project.
// Firebase Storage buckets are plain GCS buckets, so the GCS handle does the work.
type FirebaseStore struct {
	Bucket *gcs.BucketHandle
	Name   string
}

func NewFirebase(ctx context.Context) (*FirebaseStore, error) {
	name := viper.GetString("firebase.bucket")

	var opts []option.ClientOption
	if f := viper.GetString("firebase.credentials_file"); f != "" {
		opts = append(opts, option.WithCredentialsFile(f))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{StorageBucket: name}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app, %w", err)
	}

	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase storage, %w", err)
	}

	bucket, err := client.DefaultBucket()
	if err != nil {
		return nil, fmt.Errorf("failed to get default bucket, %w", err)
	}

	if _, err := bucket.Attrs(ctx); err != nil {
		if errors.Is(err, gcs.ErrBucketNotExist) {
			return nil, fmt.Errorf("bucket '%s' does not exist", name)
		}

		return nil, fmt.Errorf("failed to check if bucket exists, %w", err)
	}

	return &FirebaseStore{Bucket: bucket, Name: name}, nil
}

func (f *FirebaseStore) Put(ctx context.Context, key, contentType string, body io.Reader, _ int64) error {
	w := f.Bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = cacheControl
	w.Metadata = map[string]string{
		"uploadedAt": time.Now().UTC().Format(time.RFC3339),
	}

	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to upload %s to firebase, %w", key, err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to upload %s to firebase, %w", key, err)
	}

	return nil
}

func (f *FirebaseStore) Delete(ctx context.Context, key string) error {
	err := f.Bucket.Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete %s from firebase, %w", key, err)
	}

	return nil
}

func (f *FirebaseStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	it := f.Bucket.Objects(ctx, &gcs.Query{Prefix: prefix})

	deleted := 0

	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return deleted, fmt.Errorf("failed to list objects, %w", err)
		}

		if err := f.Delete(ctx, attrs.Name); err != nil {
			return deleted, err
		}

		deleted++
	}

	return deleted, nil
}

// URL returns the download link Firebase serves public objects from
func (f *FirebaseStore) URL(key string) string {
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media", f.Name, url.PathEscape(key))
}
