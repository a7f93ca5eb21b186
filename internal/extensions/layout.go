package extensions

import "path/filepath"

// Layout resolves extension source and output locations.
type Layout struct {
	ExtensionsDirectory string
	OutputDirectory     string
}

// NewLayout builds a Layout from marketplace configuration.
func NewLayout(configuration MarketplaceConfiguration) Layout {
	return Layout{
		ExtensionsDirectory: configuration.ExtensionsDirectory,
		OutputDirectory:     configuration.OutputDirectory,
	}
}

// SourceDirectory returns the directory holding the extension sources.
func (layout Layout) SourceDirectory(extensionName string) string {
	return filepath.Join(layout.ExtensionsDirectory, extensionName)
}

// OutputDirectoryFor returns the directory receiving the bundled extension.
func (layout Layout) OutputDirectoryFor(extensionName string) string {
	return filepath.Join(layout.OutputDirectory, extensionName)
}
