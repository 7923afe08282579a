package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/personnel-api/internal/domain"
)

// ImagesDir - каталог фотографий внутри области загрузок
const ImagesDir = "images"

// PictureStorage сохраняет фотографии работников
type PictureStorage interface {
	// Save записывает содержимое и возвращает относительный путь вида images/<name>
	Save(ctx context.Context, originalName string, content io.Reader) (string, error)
}

type fsPictureStorage struct {
	root     string
	maxBytes int64
}

// NewFSPictureStorage создаёт хранилище в каталоге root/images
func NewFSPictureStorage(root string, maxBytes int64) (PictureStorage, error) {
	if err := os.MkdirAll(filepath.Join(root, ImagesDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create images directory: %w", err)
	}
	return &fsPictureStorage{root: root, maxBytes: maxBytes}, nil
}

func (s *fsPictureStorage) Save(ctx context.Context, originalName string, content io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := io.ReadAll(io.LimitReader(content, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read picture: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", domain.NewValidationError("picture", fmt.Sprintf("must not exceed %d bytes", s.maxBytes))
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return "", domain.ErrInvalidPicture
	}

	name := StoredName(originalName, mime.Extension())
	if err := os.WriteFile(filepath.Join(s.root, ImagesDir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write picture: %w", err)
	}

	return path.Join(ImagesDir, name), nil
}

// StoredName строит уникальное имя файла из исходного имени
func StoredName(originalName, fallbackExt string) string {
	base := sanitize(filepath.Base(strings.ReplaceAll(originalName, `\`, "/")))
	if base == "" || base == "." || base == "/" {
		base = "picture" + fallbackExt
	}
	if filepath.Ext(base) == "" {
		base += fallbackExt
	}
	return uuid.NewString() + "_" + base
}

func sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.TrimLeft(b.String(), ".")
}
