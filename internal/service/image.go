package service

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Drakz0n/CommFlow/internal/storage"
	"github.com/Drakz0n/CommFlow/internal/validation"
)

// DefaultMaxImageBytes is the upload ceiling when none is configured.
const DefaultMaxImageBytes = 10 << 20 // 10 MiB

var (
	ErrImageTooLarge = errors.New("image file too large")
	ErrInvalidImage  = errors.New("invalid image data")
	ErrImageFormat   = errors.New("invalid image format")
)

// ImageService writes commission attachments beside the commission files.
type ImageService struct {
	store    *storage.FileStore
	maxBytes int64
	logger   *slog.Logger
}

// NewImageService creates an ImageService. A non-positive maxBytes falls
// back to DefaultMaxImageBytes.
func NewImageService(store *storage.FileStore, maxBytes int64, logger *slog.Logger) *ImageService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	return &ImageService{store: store, maxBytes: maxBytes, logger: logger}
}

// SaveCommissionImage validates data and stores it as
// pendings/{client}/images/{id}_{filename}, returning the relative reference
// images/{id}_{filename} to record on the commission. Images always land
// under pendings, even for completed commissions.
func (s *ImageService) SaveCommissionImage(commissionID, clientName, filename string, data []byte) (string, error) {
	if err := validation.ID(commissionID); err != nil {
		return "", err
	}
	if err := validation.Name(clientName, "Client name"); err != nil {
		return "", err
	}
	if err := validation.Filename(filename); err != nil {
		return "", err
	}
	if int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("%w (max %d bytes)", ErrImageTooLarge, s.maxBytes)
	}
	if len(data) < 4 {
		return "", ErrInvalidImage
	}
	format, ok := sniffImage(data)
	if !ok {
		return "", ErrImageFormat
	}

	name := commissionID + "_" + storage.SanitizeName(filename)
	path := s.store.Path(storage.PendingsDir, storage.SanitizeName(clientName), storage.ImagesDir, name)
	if err := s.store.WriteFile(path, data); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}
	s.logger.Info("image saved", "commission_id", commissionID, "format", format, "bytes", len(data))
	return storage.ImagesDir + "/" + name, nil
}

// sniffImage checks magic numbers. Unlike http.DetectContentType it only
// knows the formats the filename check allows.
func sniffImage(data []byte) (string, bool) {
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "jpeg", true
	case bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'}):
		return "png", true
	case bytes.HasPrefix(data, []byte("GIF8")):
		return "gif", true
	case bytes.HasPrefix(data, []byte("BM")):
		return "bmp", true
	case bytes.HasPrefix(data, []byte("RIFF")):
		// RIFF is a container; WebP stores its tag at offset 8.
		if len(data) >= 12 && string(data[8:12]) == "WEBP" {
			return "webp", true
		}
	}
	return "", false
}
