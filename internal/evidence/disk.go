package evidence

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	dErrors "civicfix/pkg/domain-errors"
)

// DiskStore writes evidence files under a local directory that the server
// exposes as static content.
type DiskStore struct {
	dir     string
	baseURL string
}

func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create evidence dir: %w", err)
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *DiskStore) Store(_ context.Context, filename, mimeType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", dErrors.New(dErrors.CodeValidation, "evidence file is empty")
	}

	ext := filepath.Ext(filename)
	if ext == "" {
		if exts, _ := mime.ExtensionsByType(mimeType); len(exts) > 0 {
			ext = exts[0]
		}
	}
	// The stored name never derives from user input beyond the extension.
	name := uuid.NewString() + ext

	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write evidence file: %w", err)
	}
	return s.baseURL + "/" + name, nil
}
