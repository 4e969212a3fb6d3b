package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PhotoStorage keeps entry photos on local disk under a configured
// directory, one file per admission named after the transaction number.
type PhotoStorage struct {
	Dir string
}

func NewPhotoStorage(dir string) (*PhotoStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating photo storage directory %s: %w", dir, err)
	}
	return &PhotoStorage{Dir: dir}, nil
}

// Save writes the image bytes and returns the stored path. The label
// (plate or transaction number) becomes part of the file name.
func (p *PhotoStorage) Save(label string, capturedAt time.Time, imageBytes []byte) (string, error) {
	name := fmt.Sprintf("%s_%s.jpg", sanitizeFileName(label), capturedAt.Format("20060102T150405"))
	path := filepath.Join(p.Dir, name)
	if err := os.WriteFile(path, imageBytes, 0o644); err != nil {
		return "", fmt.Errorf("saving entry photo %s: %w", path, err)
	}
	return path, nil
}

func sanitizeFileName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}
