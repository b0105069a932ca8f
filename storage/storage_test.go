package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("http://cdn.test/")

	require.NoError(t, m.Put(ctx, "products/a.webp", "image/webp", strings.NewReader("aaa"), 3))
	require.NoError(t, m.Put(ctx, "products/b.webp", "image/webp", strings.NewReader("bbb"), 3))
	require.NoError(t, m.Put(ctx, "other/c.txt", "text/plain", strings.NewReader("c"), 1))

	data, ct, err := m.Get("products/a.webp")
	require.NoError(t, err)
	assert.Equal(t, "aaa", string(data))
	assert.Equal(t, "image/webp", ct)

	assert.Equal(t, "http://cdn.test/products/a.webp", m.URL("products/a.webp"))

	require.NoError(t, m.Delete(ctx, "products/a.webp"))
	require.NoError(t, m.Delete(ctx, "products/a.webp"), "deleting twice is fine")

	_, _, err = m.Get("products/a.webp")
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := m.DeletePrefix(ctx, "products/")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"other/c.txt"}, m.Keys())
}

func TestMemoryHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMemory("")
	assert.Error(t, m.Put(ctx, "k", "text/plain", strings.NewReader("v"), 1))
	assert.Empty(t, m.Keys())
}

func TestFirebaseURL(t *testing.T) {
	f := &FirebaseStore{Name: "store.firebasestorage.app"}

	assert.Equal(t,
		"https://firebasestorage.googleapis.com/v0/b/store.firebasestorage.app/o/products%2F1700000000000-shirt.webp?alt=media",
		f.URL("products/1700000000000-shirt.webp"),
	)
}

func TestS3URL(t *testing.T) {
	s := &S3Store{PublicURL: "https://images.example.com"}
	assert.Equal(t, "https://images.example.com/products/x.webp", s.URL("products/x.webp"))
}

func TestNewSelectsMemory(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("storage.type", "memory")
	s, err := New(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	viper.Set("storage.type", "ftp")
	_, err = New(context.Background())
	assert.Error(t, err)
}
