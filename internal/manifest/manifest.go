package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"
)

const (
	// FileName is the extension manifest file name.
	FileName = "package.json"

	nameFieldPathConstant           = "name"
	versionFieldPathConstant        = "version"
	publisherFieldPathConstant      = "publisher"
	readErrorTemplateConstant       = "unable to read extension manifest %s: %w"
	invalidManifestTemplateConstant = "extension manifest %s is not valid JSON"
	archiveFileNameTemplateConstant = "%s-%s.vsix"
	missingIdentityMessageConstant  = "extension manifest does not declare name and version"
	missingIdentityTemplateConstant = "%w: %s"
)

// ErrManifestIdentityMissing indicates the manifest lacks a name or version.
var ErrManifestIdentityMissing = errors.New(missingIdentityMessageConstant)

// Manifest holds the extension manifest fields vsxbuild relies on.
type Manifest struct {
	Name      string
	Version   string
	Publisher string
}

// Read loads the manifest from the provided extension directory.
func Read(directory string) (Manifest, error) {
	manifestPath := filepath.Join(directory, FileName)
	content, readError := os.ReadFile(manifestPath)
	if readError != nil {
		return Manifest{}, fmt.Errorf(readErrorTemplateConstant, manifestPath, readError)
	}
	return Parse(manifestPath, content)
}

// Parse extracts manifest fields from raw JSON content.
func Parse(source string, content []byte) (Manifest, error) {
	if !gjson.ValidBytes(content) {
		return Manifest{}, fmt.Errorf(invalidManifestTemplateConstant, source)
	}
	fields := gjson.GetManyBytes(content, nameFieldPathConstant, versionFieldPathConstant, publisherFieldPathConstant)
	return Manifest{
		Name:      fields[0].String(),
		Version:   fields[1].String(),
		Publisher: fields[2].String(),
	}, nil
}

// ArchiveFileName returns the archive name the packager produces for this manifest.
func (manifest Manifest) ArchiveFileName() (string, error) {
	if len(manifest.Name) == 0 || len(manifest.Version) == 0 {
		return "", fmt.Errorf(missingIdentityTemplateConstant, ErrManifestIdentityMissing, manifest.Name)
	}
	return fmt.Sprintf(archiveFileNameTemplateConstant, manifest.Name, manifest.Version), nil
}
