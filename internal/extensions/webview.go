package extensions

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/tyemirov/vsxbuild/internal/execshell"
)

const (
	runSubcommandConstant          = "run"
	recursiveGlobSuffixConstant    = "**/*"
	assetGlobErrorTemplateConstant = "unable to list webview assets of %s: %w"
	webviewBundledMessageConstant  = "Copied webview assets"
	copiedFilesFieldNameConstant   = "files"
	destinationFieldNameConstant   = "destination"
)

// WebviewBundler builds webview assets and copies them into the extension output.
type WebviewBundler struct {
	packageManager execshell.ToolCommand
	executor       CommandExecutor
	layout         Layout
	logger         *zap.Logger
}

// NewWebviewBundler constructs a WebviewBundler.
func NewWebviewBundler(packageManager execshell.ToolCommand, executor CommandExecutor, layout Layout, logger *zap.Logger) (*WebviewBundler, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebviewBundler{packageManager: packageManager, executor: executor, layout: layout, logger: logger}, nil
}

// Bundle runs the extension's webview build script and copies the produced
// assets to the output tree. Partial copies are left in place on failure.
func (bundler *WebviewBundler) Bundle(ctx context.Context, extension ExtensionConfiguration) error {
	sourceDirectory := bundler.layout.SourceDirectory(extension.Name)
	command := bundler.packageManager.ExitCodeCommand("",
		workingDirectoryFlagConstant, sourceDirectory,
		runSubcommandConstant, extension.Webview.Script,
	)
	if _, executionError := bundler.executor.Execute(ctx, command); executionError != nil {
		return executionError
	}

	assetsDirectory := filepath.Join(sourceDirectory, extension.Webview.Assets)
	destinationDirectory := filepath.Join(bundler.layout.OutputDirectoryFor(extension.Name), extension.Webview.Assets)
	copiedFiles := 0
	walkError := doublestar.GlobWalk(os.DirFS(assetsDirectory), recursiveGlobSuffixConstant, func(relativePath string, entry fs.DirEntry) error {
		if contextError := ctx.Err(); contextError != nil {
			return contextError
		}
		if entry.IsDir() || hasHiddenSegment(relativePath) {
			return nil
		}
		nativePath := filepath.FromSlash(path.Clean(relativePath))
		if copyError := copyFile(filepath.Join(assetsDirectory, nativePath), filepath.Join(destinationDirectory, nativePath)); copyError != nil {
			return copyError
		}
		copiedFiles++
		return nil
	})
	if walkError != nil {
		return fmt.Errorf(assetGlobErrorTemplateConstant, extension.Name, walkError)
	}

	bundler.logger.Info(webviewBundledMessageConstant,
		zap.String(extensionFieldNameConstant, extension.Name),
		zap.String(destinationFieldNameConstant, destinationDirectory),
		zap.Int(copiedFilesFieldNameConstant, copiedFiles),
	)
	return nil
}

// hasHiddenSegment reports whether any element of a slash-separated path starts with a dot.
func hasHiddenSegment(relativePath string) bool {
	for _, segment := range strings.Split(relativePath, "/") {
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}
	return false
}
