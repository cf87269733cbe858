package wms_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"gatecheck/internal/wms"
)

func TestDirUploaderCopies(t *testing.T) {
	source := filepath.Join(t.TempDir(), "inbound.xls")
	if err := os.WriteFile(source, []byte("export"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	archive := filepath.Join(t.TempDir(), "archive")
	uploader := wms.DirUploader{Dir: archive}
	if err := uploader.Upload(context.Background(), source); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(archive, "inbound.xls"))
	if err != nil {
		t.Fatalf("read archived copy: %v", err)
	}
	if string(data) != "export" {
		t.Fatalf("archived contents = %q", data)
	}
}

func TestDirUploaderMissingSource(t *testing.T) {
	uploader := wms.DirUploader{Dir: t.TempDir()}
	if err := uploader.Upload(context.Background(), filepath.Join(t.TempDir(), "missing.xls")); err == nil {
		t.Fatal("expected error for missing source")
	}
}
