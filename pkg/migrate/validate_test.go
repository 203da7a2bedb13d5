package migrate

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateDirAcceptsCheckedInMigrations(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("checked-in migrations should validate: %v", err)
	}
}

func TestValidateDirRejectsBadFilename(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "001_bad.sql")
	if err := os.WriteFile(bad, []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write bad file: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected filename validation error")
	}
}

func TestValidateDirRejectsMissingHeaders(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "20250815120000_missing_down.sql")
	if err := os.WriteFile(name, []byte("-- +goose Up\nSELECT 1;\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected missing Down header error")
	}
}
