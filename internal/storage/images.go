package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"adboard/internal/logger"

	"github.com/google/uuid"
)

// MaxImageSize is the largest accepted upload
const MaxImageSize = 5 * 1024 * 1024 // 5MB

var (
	ErrInvalidImageFormat = errors.New("invalid image format. only .jpg, .jpeg, .png, .gif, .webp are allowed")
	ErrImageTooLarge      = errors.New("image exceeds the 5MB limit")
)

var allowedImageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ImageStore saves uploaded images into a single directory
type ImageStore struct {
	dir string
}

// NewImageStore ensures dir exists
func NewImageStore(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory %s: %w", dir, err)
	}
	return &ImageStore{dir: dir}, nil
}

// Dir is the directory images are written to
func (s *ImageStore) Dir() string {
	return s.dir
}

// CheckImage validates size and extension without touching the disk
func CheckImage(fh *multipart.FileHeader) error {
	if fh.Size > MaxImageSize {
		return ErrImageTooLarge
	}
	if !allowedImageExts[strings.ToLower(filepath.Ext(fh.Filename))] {
		return ErrInvalidImageFormat
	}
	return nil
}

// SanitizeFilename strips directory components and anything outside
// [A-Za-z0-9._-]. The result may be empty.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeChars.ReplaceAllString(name, "")
	return strings.TrimLeft(name, ".")
}

// Save writes the upload and returns the stored file name, relative to Dir
func (s *ImageStore) Save(fh *multipart.FileHeader) (string, error) {
	if err := CheckImage(fh); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	clean := SanitizeFilename(fh.Filename)
	if clean == ext || strings.ToLower(filepath.Ext(clean)) != ext {
		clean = "image" + ext
	}
	name := uuid.New().String()[:8] + "_" + clean
	dstPath := filepath.Join(s.dir, name)

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file on server: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	logger.Info().Str("filename", fh.Filename).Str("saved_as", name).Msg("Image saved")
	return name, nil
}

// Remove deletes a stored image. Missing files are ignored.
func (s *ImageStore) Remove(name string) error {
	if name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove image: %w", err)
	}
	return nil
}
