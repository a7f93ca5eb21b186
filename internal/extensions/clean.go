package extensions

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	removeDirectoryErrorTemplateConstant = "unable to remove %s: %w"
	unsafeRemovalErrorTemplateConstant   = "refusing to remove %q"
	directoryRemovedMessageConstant      = "Removed output directory"
	directoryFieldNameConstant           = "directory"
)

// RemoveDirectory deletes a directory tree. Missing directories are not an error.
func RemoveDirectory(directory string, logger *zap.Logger) error {
	cleaned := filepath.Clean(strings.TrimSpace(directory))
	if cleaned == "." || cleaned == string(filepath.Separator) || len(strings.TrimSpace(directory)) == 0 {
		return fmt.Errorf(unsafeRemovalErrorTemplateConstant, directory)
	}
	if removeError := os.RemoveAll(cleaned); removeError != nil {
		return fmt.Errorf(removeDirectoryErrorTemplateConstant, cleaned, removeError)
	}
	if logger != nil {
		logger.Debug(directoryRemovedMessageConstant, zap.String(directoryFieldNameConstant, cleaned))
	}
	return nil
}
