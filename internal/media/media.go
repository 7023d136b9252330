// Package media stages inbound base64 images on disk for dispatch. Images
// are recompressed to bounded JPEG before they ever reach the provider, and
// staged files are deleted shortly after the send completes.
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/sunshineplan/imgconv"

	"github.com/dfquiroga/whatsapp-service/pkg/log"
)

// ErrInvalidImage rejects payloads that are not a decodable base64 image
// data URI. Nothing is written to disk for rejected payloads.
var ErrInvalidImage = errors.New("invalid image data")

var dataURIPattern = regexp.MustCompile(`^data:([a-zA-Z0-9.+/-]+);base64,(.+)$`)

const (
	// DefaultCleanupDelay gives the provider time to finish reading the staged
	// file before it is removed.
	DefaultCleanupDelay = 30 * time.Second

	maxDimension = 1200
	jpegQuality  = 85
)

// Asset describes a staged image ready for dispatch.
type Asset struct {
	Path           string
	OriginalSize   int
	CompressedSize int
}

// Preparer decodes, recompresses and stages images under a single directory.
type Preparer struct {
	dir          string
	cleanupDelay time.Duration
}

// NewPreparer builds a preparer staging into dir, creating it if missing.
func NewPreparer(dir string, cleanupDelay time.Duration) (*Preparer, error) {
	if cleanupDelay <= 0 {
		cleanupDelay = DefaultCleanupDelay
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &Preparer{dir: dir, cleanupDelay: cleanupDelay}, nil
}

// Prepare decodes a base64 image data URI, recompresses it to JPEG within the
// dimension bound and stages the result on disk.
func (p *Preparer) Prepare(dataURI string) (Asset, error) {
	match := dataURIPattern.FindStringSubmatch(dataURI)
	if match == nil {
		return Asset{}, ErrInvalidImage
	}

	raw, err := base64.StdEncoding.DecodeString(match[2])
	if err != nil {
		return Asset{}, ErrInvalidImage
	}

	img, err := imgconv.Decode(bytes.NewReader(raw))
	if err != nil {
		return Asset{}, ErrInvalidImage
	}

	// Shrink only, small images keep their dimensions.
	bounds := img.Bounds()
	if bounds.Dx() > maxDimension || bounds.Dy() > maxDimension {
		if bounds.Dx() >= bounds.Dy() {
			img = imgconv.Resize(img, &imgconv.ResizeOption{Width: maxDimension})
		} else {
			img = imgconv.Resize(img, &imgconv.ResizeOption{Height: maxDimension})
		}
	}

	encoded := new(bytes.Buffer)
	err = imgconv.Write(encoded, img, &imgconv.FormatOption{
		Format:       imgconv.JPEG,
		EncodeOption: []imgconv.EncodeOption{imgconv.Quality(jpegQuality)},
	})
	if err != nil {
		return Asset{}, fmt.Errorf("failed to encode image: %w", err)
	}

	name := fmt.Sprintf("%d_%s.jpg", time.Now().UnixNano(), uuid.NewString()[:8])
	path := filepath.Join(p.dir, name)
	if err := os.WriteFile(path, encoded.Bytes(), 0o644); err != nil {
		return Asset{}, fmt.Errorf("failed to stage image: %w", err)
	}

	return Asset{
		Path:           path,
		OriginalSize:   len(raw),
		CompressedSize: encoded.Len(),
	}, nil
}

// ScheduleCleanup removes the staged file after the cleanup delay.
func (p *Preparer) ScheduleCleanup(path string) {
	time.AfterFunc(p.cleanupDelay, func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Session("media").WithError(err).WithField("path", path).Warn("failed to remove staged image")
		}
	})
}

// Sweep removes staged files older than the cleanup delay, catching anything
// a crashed or restarted process left behind.
func (p *Preparer) Sweep() {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		log.Session("media").WithError(err).Warn("failed to scan media directory")
		return
	}

	cutoff := time.Now().Add(-p.cleanupDelay)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(p.dir, entry.Name())); err == nil {
			removed++
		}
	}
	if removed > 0 {
		log.Session("media").WithField("removed", removed).Info("swept stale staged images")
	}
}
