package services

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/coopmarket-backend/internal/config"
)

func TestLocalStorage(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewStorageService(context.Background(), &config.Config{
		Storage: config.StorageConfig{Driver: "local", LocalPath: dir},
	})
	require.NoError(t, err)

	url, err := storage.Save(context.Background(), "photo_1.png", bytes.NewReader(pngHeader), int64(len(pngHeader)), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/photo_1.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "photo_1.png"))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)

	require.NoError(t, storage.Delete(context.Background(), "photo_1.png"))
	_, err = os.Stat(filepath.Join(dir, "photo_1.png"))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is not an error
	assert.NoError(t, storage.Delete(context.Background(), "photo_1.png"))
}

func TestNewStorageServiceRejectsUnknownDriver(t *testing.T) {
	_, err := NewStorageService(context.Background(), &config.Config{
		Storage: config.StorageConfig{Driver: "floppy"},
	})
	assert.Error(t, err)
}

func TestDetectContentType(t *testing.T) {
	body := bytes.NewReader(pngHeader)
	mtype, err := DetectContentType(body)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mtype.String())
	assert.Equal(t, ".png", mtype.Extension())

	// the reader is rewound for the upload that follows
	assert.EqualValues(t, len(pngHeader), body.Len())
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/photo.png", joinURL("https://cdn.example.com/", "photo.png"))
	assert.Equal(t, "/uploads/photo.png", joinURL("/uploads", "photo.png"))
}
