package validator

import (
	"os"

	"golang.org/x/xerrors"
)

// ValidateSubmission checks that a result artifact exists and is not
// empty. Real deployments plug in model-based content checks behind the
// same call.
func ValidateSubmission(filePath string) (int64, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, xerrors.Errorf("result file %s not found", filePath)
		}
		return 0, xerrors.Errorf("stat result file %s: %w", filePath, err)
	}
	if info.IsDir() {
		return 0, xerrors.Errorf("result path %s is a directory", filePath)
	}
	if info.Size() == 0 {
		return 0, xerrors.Errorf("result file %s is empty", filePath)
	}
	return info.Size(), nil
}
