package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMemoryReportArchive(t *testing.T) {
	assert.Equal(t, "http://localhost/exports", NewMemoryReportArchive("").BaseURL)
	assert.Equal(t, "https://files.example.com", NewMemoryReportArchive("https://files.example.com/").BaseURL)
}

func TestMemoryReportArchive_UploadAndGet(t *testing.T) {
	a := NewMemoryReportArchive("")
	ctx := context.Background()

	data := []byte("Brand,Units\nSamsung,4\n")
	require.NoError(t, a.Upload(ctx, "exports/price-band/x.csv", data, "text/csv"))
	data[0] = 'X'

	obj, ok := a.Get("exports/price-band/x.csv")
	require.True(t, ok)
	assert.Equal(t, "Brand,Units\nSamsung,4\n", string(obj.Data))
	assert.Equal(t, "text/csv", obj.ContentType)
	assert.False(t, obj.StoredAt.IsZero())

	exists, err := a.ObjectExists(ctx, "exports/price-band/x.csv")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = a.ObjectExists(ctx, "missing.csv")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, 1, a.Len())
}

func TestMemoryReportArchive_EmptyKey(t *testing.T) {
	a := NewMemoryReportArchive("")
	ctx := context.Background()

	assert.ErrorIs(t, a.Upload(ctx, "", nil, "text/csv"), errEmptyKey)
	_, _, err := a.GenerateDownloadURL(ctx, "", time.Minute)
	assert.ErrorIs(t, err, errEmptyKey)
	_, err = a.ObjectExists(ctx, "")
	assert.ErrorIs(t, err, errEmptyKey)
}

func TestMemoryReportArchive_GenerateDownloadURL(t *testing.T) {
	a := NewMemoryReportArchive("https://files.example.com")
	ctx := context.Background()

	t.Run("explicit ttl", func(t *testing.T) {
		before := time.Now()
		link, expiresAt, err := a.GenerateDownloadURL(ctx, "exports/a.csv", 10*time.Minute)
		require.NoError(t, err)
		assert.Contains(t, link, "https://files.example.com/exports/a.csv?expires=")
		assert.WithinDuration(t, before.Add(10*time.Minute), expiresAt, 5*time.Second)
	})

	t.Run("default ttl", func(t *testing.T) {
		before := time.Now()
		_, expiresAt, err := a.GenerateDownloadURL(ctx, "exports/a.csv", 0)
		require.NoError(t, err)
		assert.WithinDuration(t, before.Add(DefaultPresignExpiration), expiresAt, 5*time.Second)
	})
}

func TestMemoryReportArchive_ConcurrentUploads(t *testing.T) {
	a := NewMemoryReportArchive("")
	ctx := context.Background()

	var wg sync.WaitGroup
	keys := []string{"a.csv", "b.csv", "c.csv", "d.csv", "e.csv", "f.csv", "g.csv", "h.csv"}
	for _, key := range keys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			_ = a.Upload(ctx, key, []byte(key), "text/csv")
		}(key)
	}
	wg.Wait()
	assert.Equal(t, len(keys), a.Len())
}
