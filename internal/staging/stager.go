// Package staging validates a locally selected media file and holds it
// pending submission. Nothing here touches the network.
package staging

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"drone-vision/internal/domain"
)

const (
	// MaxImageBytes is the upload ceiling for images (50 MiB).
	MaxImageBytes int64 = 50 * 1024 * 1024
	// MaxVideoBytes is the upload ceiling for videos (500 MiB).
	MaxVideoBytes int64 = 500 * 1024 * 1024
)

// ErrUnsupportedType is returned when a file is neither a recognized
// image nor a recognized video for the requested kind.
var ErrUnsupportedType = errors.New("unsupported file type")

// SizeExceededError reports a file over the per-kind upload ceiling.
type SizeExceededError struct {
	Kind  domain.MediaKind
	Size  int64
	Limit int64
}

// Error formats the violation with human-readable sizes.
func (e *SizeExceededError) Error() string {
	return fmt.Sprintf("%s file is %s, limit is %s",
		e.Kind, FormatFileSize(e.Size), FormatFileSize(e.Limit))
}

// StagedFile is a validated local file held for submission.
type StagedFile struct {
	Path      string           `json:"path"`
	Name      string           `json:"name"`
	Size      int64            `json:"size"`
	SizeLabel string           `json:"sizeLabel"`
	MediaKind domain.MediaKind `json:"mediaKind"`
}

// magic signatures checked against the file header.
var (
	imageMagic = map[string][]byte{
		"png":  {0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
		"jpeg": {0xFF, 0xD8, 0xFF},
		"gif":  {0x47, 0x49, 0x46, 0x38},
	}
	videoMagic = map[string][]byte{
		"matroska": {0x1A, 0x45, 0xDF, 0xA3},
	}

	imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp"}
	videoExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".webm", ".flv"}
)

// Stager validates files and holds at most one staged file per media
// kind until the next submission replaces it.
type Stager struct {
	mu     sync.Mutex
	staged map[domain.MediaKind]StagedFile
}

// NewStager creates an empty stager.
func NewStager() *Stager {
	return &Stager{staged: make(map[domain.MediaKind]StagedFile)}
}

// Stage validates the file at path for kind and holds it for submission.
// Oversized files return a SizeExceededError; unrecognized content
// returns ErrUnsupportedType.
func (s *Stager) Stage(path string, kind domain.MediaKind) (StagedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return StagedFile{}, fmt.Errorf("inspect file: %w", err)
	}

	limit := MaxImageBytes
	if kind == domain.MediaKindVideo {
		limit = MaxVideoBytes
	}
	if info.Size() > limit {
		return StagedFile{}, &SizeExceededError{Kind: kind, Size: info.Size(), Limit: limit}
	}

	matches, err := matchesKind(path, kind)
	if err != nil {
		return StagedFile{}, err
	}
	if !matches {
		return StagedFile{}, ErrUnsupportedType
	}

	staged := StagedFile{
		Path:      path,
		Name:      filepath.Base(path),
		Size:      info.Size(),
		SizeLabel: FormatFileSize(info.Size()),
		MediaKind: kind,
	}

	s.mu.Lock()
	s.staged[kind] = staged
	s.mu.Unlock()

	return staged, nil
}

// Current returns the staged file for kind, if any.
func (s *Stager) Current(kind domain.MediaKind) (StagedFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	staged, ok := s.staged[kind]
	return staged, ok
}

// Clear drops the staged file for kind.
func (s *Stager) Clear(kind domain.MediaKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.staged, kind)
}

// matchesKind sniffs the file header for a known signature, falling back
// to the extension when the header is inconclusive.
func matchesKind(path string, kind domain.MediaKind) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	header := make([]byte, 16)
	n, _ := file.Read(header)
	header = header[:n]

	switch kind {
	case domain.MediaKindImage:
		for _, signature := range imageMagic {
			if bytes.HasPrefix(header, signature) {
				return true, nil
			}
		}
		return hasExtension(path, imageExtensions), nil
	case domain.MediaKindVideo:
		if isMP4Header(header) || isRIFFVideo(header) {
			return true, nil
		}
		for _, signature := range videoMagic {
			if bytes.HasPrefix(header, signature) {
				return true, nil
			}
		}
		return hasExtension(path, videoExtensions), nil
	default:
		return false, nil
	}
}

// isMP4Header checks the ISO base media "ftyp" box at offset 4.
func isMP4Header(header []byte) bool {
	return len(header) >= 8 && bytes.Equal(header[4:8], []byte("ftyp"))
}

// isRIFFVideo checks the RIFF/AVI container signature.
func isRIFFVideo(header []byte) bool {
	return len(header) >= 12 &&
		bytes.Equal(header[0:4], []byte("RIFF")) &&
		bytes.Equal(header[8:12], []byte("AVI "))
}

// hasExtension reports whether path ends with one of the extensions.
func hasExtension(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, candidate := range extensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

// FormatFileSize renders a byte count as a human-readable string.
func FormatFileSize(size int64) string {
	if size <= 0 {
		return "0 Bytes"
	}

	units := []string{"Bytes", "KB", "MB", "GB"}
	exponent := int(math.Floor(math.Log(float64(size)) / math.Log(1024)))
	if exponent >= len(units) {
		exponent = len(units) - 1
	}

	value := float64(size) / math.Pow(1024, float64(exponent))
	formatted := strconv.FormatFloat(value, 'f', 2, 64)
	formatted = strings.TrimRight(strings.TrimRight(formatted, "0"), ".")
	return formatted + " " + units[exponent]
}
