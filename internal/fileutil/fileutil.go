// Package fileutil moves browser download artifacts between directories.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
)

// CopyFile streams src to dst with default permissions (0o644),
// truncating dst if it already exists.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// MoveFile renames src to dst. The browser's download directory and the
// destination may sit on different filesystems, so a failed rename falls
// back to copy and remove.
func MoveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}
	if err := CopyFile(src, dst); err != nil {
		return fmt.Errorf("copy across filesystems: %w", err)
	}
	return os.Remove(src)
}
