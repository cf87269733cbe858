package wms

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gatecheck/internal/fileutil"
)

// Uploader publishes an exported inventory file to wherever the downstream
// consumers read it from.
type Uploader interface {
	Upload(ctx context.Context, path string) error
}

// DirUploader archives exports by copying them into a directory.
type DirUploader struct {
	Dir string
}

// Upload copies path into the archive directory, overwriting any previous
// export of the same name.
func (u DirUploader) Upload(_ context.Context, path string) error {
	if err := os.MkdirAll(u.Dir, 0o755); err != nil {
		return fmt.Errorf("ensure archive dir: %w", err)
	}

	target := filepath.Join(u.Dir, filepath.Base(path))
	if err := fileutil.CopyFile(path, target); err != nil {
		return fmt.Errorf("archive export: %w", err)
	}
	return nil
}
