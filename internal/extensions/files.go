package extensions

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	outputDirectoryPermissionsConstant = 0o755
	copyFileErrorTemplateConstant      = "unable to copy %s to %s: %w"
	writeFileErrorTemplateConstant     = "unable to write %s: %w"
)

func copyFile(sourcePath string, destinationPath string) error {
	sourceInfo, statError := os.Stat(sourcePath)
	if statError != nil {
		return fmt.Errorf(copyFileErrorTemplateConstant, sourcePath, destinationPath, statError)
	}
	if mkdirError := os.MkdirAll(filepath.Dir(destinationPath), outputDirectoryPermissionsConstant); mkdirError != nil {
		return fmt.Errorf(copyFileErrorTemplateConstant, sourcePath, destinationPath, mkdirError)
	}

	source, openError := os.Open(sourcePath)
	if openError != nil {
		return fmt.Errorf(copyFileErrorTemplateConstant, sourcePath, destinationPath, openError)
	}
	defer source.Close()

	destination, createError := os.OpenFile(destinationPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, sourceInfo.Mode().Perm())
	if createError != nil {
		return fmt.Errorf(copyFileErrorTemplateConstant, sourcePath, destinationPath, createError)
	}
	if _, copyError := io.Copy(destination, source); copyError != nil {
		destination.Close()
		return fmt.Errorf(copyFileErrorTemplateConstant, sourcePath, destinationPath, copyError)
	}
	if closeError := destination.Close(); closeError != nil {
		return fmt.Errorf(copyFileErrorTemplateConstant, sourcePath, destinationPath, closeError)
	}
	return nil
}

func writeFile(destinationPath string, content []byte, mode fs.FileMode) error {
	if mkdirError := os.MkdirAll(filepath.Dir(destinationPath), outputDirectoryPermissionsConstant); mkdirError != nil {
		return fmt.Errorf(writeFileErrorTemplateConstant, destinationPath, mkdirError)
	}
	if writeError := os.WriteFile(destinationPath, content, mode.Perm()); writeError != nil {
		return fmt.Errorf(writeFileErrorTemplateConstant, destinationPath, writeError)
	}
	return nil
}
