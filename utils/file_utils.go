package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// SaveCheckInPhoto stores an uploaded clock-in photo under uploads/checkins
// and writes a 320px-wide thumbnail next to it. The thumbnail is what the
// attendance dashboard lists; the full image is kept for the face-matching
// collaborator.
func SaveCheckInPhoto(file *multipart.FileHeader) (string, error) {
	uploadDir := filepath.Join("uploads", "checkins")
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return "", fmt.Errorf("unsupported photo format: %s", ext)
	}

	filename := fmt.Sprintf("%d%s", time.Now().UnixNano(), ext)
	dstPath := filepath.Join(uploadDir, filename)

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	if err := writeThumbnail(dstPath); err != nil {
		// Thumbnail is cosmetic; keep the original on failure
		fmt.Printf("warning: failed to create thumbnail for %s: %v\n", filename, err)
	}

	return "/" + filepath.ToSlash(dstPath), nil
}

// writeThumbnail creates a resized copy alongside the original
func writeThumbnail(path string) error {
	img, err := imaging.Open(path)
	if err != nil {
		return err
	}

	resized := imaging.Resize(img, 320, 0, imaging.Lanczos)

	ext := filepath.Ext(path)
	thumbPath := strings.TrimSuffix(path, ext) + "_thumb" + ext
	return imaging.Save(resized, thumbPath)
}
