package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"
	"time"

	"grandeva/store-api/db"
	"grandeva/store-api/internal/model"
	"grandeva/store-api/pkg/security"
	"grandeva/store-api/pkg/util"
	"grandeva/store-api/storage"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	d, err := db.Open(sqlite.Open(":memory:"))
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := d.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return d
}

func seedUser(t *testing.T, d *gorm.DB, email string) *model.User {
	t.Helper()

	u := &model.User{
		ID:           util.MustID(),
		Name:         "Test",
		Email:        email,
		PasswordHash: "x",
	}
	require.NoError(t, d.Create(u).Error)

	return u
}

func seedProduct(t *testing.T, d *gorm.DB, name string) *model.Product {
	t.Helper()

	price := 29.9
	p := &model.Product{
		ID:        util.MustID(),
		Name:      name,
		Price:     &price,
		Type:      model.ProductClothes,
		Data:      model.JSON(`{}`),
		ImageName: "products/" + name + ".webp",
		ImageURL:  "http://localhost/blobs/products/" + name + ".webp",
	}
	require.NoError(t, d.Create(p).Error)

	return p
}

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

func testIdentity(d *gorm.DB) *Identity {
	return NewIdentity(d,
		&security.ArgonHash{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32},
		&security.SessionSigner{
			Secret:   []byte("test-secret"),
			Issuer:   "urn:test:issuer",
			Audience: "urn:test:audience",
			TTL:      time.Hour,
			Now:      time.Now,
		},
	)
}

func testUploader(s storage.Store) *Uploader {
	return &Uploader{
		Store:   s,
		Images:  &ImageProcessor{Width: 800, Quality: 80},
		Prefix:  "products/",
		MaxSize: 4 << 20,
		Now:     time.Now,
	}
}

// flakyStore wraps a Store and fails the operations that are switched on
type flakyStore struct {
	storage.Store

	failPut    bool
	failDelete bool
}

var errStoreDown = errors.New("store down")

func (f *flakyStore) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	if f.failPut {
		return errStoreDown
	}

	return f.Store.Put(ctx, key, contentType, body, size)
}

func (f *flakyStore) Delete(ctx context.Context, key string) error {
	if f.failDelete {
		return errStoreDown
	}

	return f.Store.Delete(ctx, key)
}

func (f *flakyStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	if f.failDelete {
		return 0, errStoreDown
	}

	return f.Store.DeletePrefix(ctx, prefix)
}

// failCreates makes every INSERT into products fail
func failCreates(t *testing.T, d *gorm.DB) {
	t.Helper()

	err := d.Callback().Create().Before("gorm:create").Register("test:fail_products", func(tx *gorm.DB) {
		if tx.Statement.Table == "products" {
			tx.AddError(errors.New("disk full"))
		}
	})
	require.NoError(t, err)
}
