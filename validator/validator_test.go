package validator

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateSubmission(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "result.png")
	if err := os.WriteFile(valid, []byte("fake image bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	size, err := ValidateSubmission(valid)
	if err != nil {
		t.Fatalf("valid file rejected: %v", err)
	}
	if size != 16 {
		t.Errorf("unexpected size: %d", size)
	}
}

func TestValidateSubmissionEmptyFile(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.out")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := ValidateSubmission(empty); err == nil {
		t.Fatal("empty file must fail validation")
	}
}

func TestValidateSubmissionMissingFile(t *testing.T) {
	if _, err := ValidateSubmission(filepath.Join(t.TempDir(), "missing.out")); err == nil {
		t.Fatal("missing file must fail validation")
	}
}

func TestValidateSubmissionDirectory(t *testing.T) {
	if _, err := ValidateSubmission(t.TempDir()); err == nil {
		t.Fatal("a directory must fail validation")
	}
}
