package extensions

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"
)

const (
	ignoreFileNameConstant              = ".vscodeignore"
	ignoreCommentPrefixConstant         = "#"
	ignoreNegationPrefixConstant        = "!"
	directoryContentsSuffixConstant     = "/**"
	allFilesPatternConstant             = "**"
	jsonExtensionConstant               = ".json"
	snippetsExtensionConstant           = ".code-snippets"
	listFilesErrorTemplateConstant      = "unable to list files of extension %s: %w"
	readIgnoreErrorTemplateConstant     = "unable to read %s: %w"
	invalidPatternErrorTemplateConstant = "invalid ignore pattern %q: %w"
	readResourceErrorTemplateConstant   = "unable to read %s: %w"
	resourcesBundledMessageConstant     = "Bundled extension resources"
	minifiedFilesFieldNameConstant      = "minified"
)

var defaultExcludePatterns = []string{
	".git/**",
	"**/.git/**",
	"node_modules/**",
	".vscode-test/**",
	".vscode-test-web/**",
	"**/*.vsix",
	"**/*.vsixmanifest",
	"**/.DS_Store",
}

// ResourceBundler copies an extension's shippable files into the output tree,
// minifying JSON resources along the way.
type ResourceBundler struct {
	layout Layout
	logger *zap.Logger
}

// NewResourceBundler constructs a ResourceBundler.
func NewResourceBundler(layout Layout, logger *zap.Logger) *ResourceBundler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResourceBundler{layout: layout, logger: logger}
}

// Bundle writes every shippable file of the extension to
// <output>/<extension>/<relative directory>/<file>.
func (bundler *ResourceBundler) Bundle(ctx context.Context, extension ExtensionConfiguration) error {
	sourceDirectory := bundler.layout.SourceDirectory(extension.Name)
	files, listError := ListFiles(sourceDirectory, extension.Ignore)
	if listError != nil {
		return fmt.Errorf(listFilesErrorTemplateConstant, extension.Name, listError)
	}

	destinationDirectory := bundler.layout.OutputDirectoryFor(extension.Name)
	minified := 0
	for _, relativePath := range files {
		if contextError := ctx.Err(); contextError != nil {
			return contextError
		}
		nativePath := filepath.FromSlash(relativePath)
		sourcePath := filepath.Join(sourceDirectory, nativePath)
		destinationPath := filepath.Join(destinationDirectory, nativePath)
		if !isMinifiable(relativePath) {
			if copyError := copyFile(sourcePath, destinationPath); copyError != nil {
				return copyError
			}
			continue
		}
		wasMinified, minifyError := minifyResource(sourcePath, destinationPath)
		if minifyError != nil {
			return minifyError
		}
		if wasMinified {
			minified++
		}
	}

	bundler.logger.Info(resourcesBundledMessageConstant,
		zap.String(extensionFieldNameConstant, extension.Name),
		zap.String(destinationFieldNameConstant, destinationDirectory),
		zap.Int(copiedFilesFieldNameConstant, len(files)),
		zap.Int(minifiedFilesFieldNameConstant, minified),
	)
	return nil
}

// ListFiles returns the slash-separated relative paths of the files that ship
// with the extension, honoring .vscodeignore, the extra patterns, and the
// default excludes.
func ListFiles(sourceDirectory string, extraIgnorePatterns []string) ([]string, error) {
	rules, rulesError := loadIgnoreRules(sourceDirectory, extraIgnorePatterns)
	if rulesError != nil {
		return nil, rulesError
	}

	var files []string
	walkError := doublestar.GlobWalk(os.DirFS(sourceDirectory), allFilesPatternConstant, func(relativePath string, entry fs.DirEntry) error {
		if entry.IsDir() {
			return nil
		}
		if rules.ignores(relativePath) {
			return nil
		}
		files = append(files, relativePath)
		return nil
	}, doublestar.WithFailOnIOErrors())
	if walkError != nil {
		return nil, walkError
	}
	sort.Strings(files)
	return files, nil
}

type ignoreRule struct {
	pattern string
	negated bool
}

type ignoreRules []ignoreRule

func loadIgnoreRules(sourceDirectory string, extraIgnorePatterns []string) (ignoreRules, error) {
	lines := append([]string{}, defaultExcludePatterns...)

	ignoreFilePath := filepath.Join(sourceDirectory, ignoreFileNameConstant)
	content, readError := os.ReadFile(ignoreFilePath)
	switch {
	case readError == nil:
		scanner := bufio.NewScanner(bytes.NewReader(content))
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if scanError := scanner.Err(); scanError != nil {
			return nil, fmt.Errorf(readIgnoreErrorTemplateConstant, ignoreFilePath, scanError)
		}
	case !errors.Is(readError, fs.ErrNotExist):
		return nil, fmt.Errorf(readIgnoreErrorTemplateConstant, ignoreFilePath, readError)
	}
	lines = append(lines, extraIgnorePatterns...)

	rules := make(ignoreRules, 0, len(lines))
	for _, line := range lines {
		rule, include := parseIgnoreRule(line)
		if !include {
			continue
		}
		if !doublestar.ValidatePattern(rule.pattern) {
			return nil, fmt.Errorf(invalidPatternErrorTemplateConstant, line, doublestar.ErrBadPattern)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func parseIgnoreRule(line string) (ignoreRule, bool) {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) == 0 || strings.HasPrefix(trimmed, ignoreCommentPrefixConstant) {
		return ignoreRule{}, false
	}
	rule := ignoreRule{}
	if strings.HasPrefix(trimmed, ignoreNegationPrefixConstant) {
		rule.negated = true
		trimmed = strings.TrimPrefix(trimmed, ignoreNegationPrefixConstant)
	}
	trimmed = strings.TrimPrefix(trimmed, "./")
	trimmed = strings.TrimPrefix(trimmed, "/")
	trimmed = strings.TrimSuffix(trimmed, "/")
	if len(trimmed) == 0 {
		return ignoreRule{}, false
	}
	rule.pattern = trimmed
	return rule, true
}

// ignores applies rules in order; the last matching rule decides.
func (rules ignoreRules) ignores(relativePath string) bool {
	ignored := false
	for _, rule := range rules {
		if rule.matches(relativePath) {
			ignored = !rule.negated
		}
	}
	return ignored
}

func (rule ignoreRule) matches(relativePath string) bool {
	if matched, _ := doublestar.Match(rule.pattern, relativePath); matched {
		return true
	}
	matched, _ := doublestar.Match(rule.pattern+directoryContentsSuffixConstant, relativePath)
	return matched
}

func isMinifiable(relativePath string) bool {
	switch strings.ToLower(path.Ext(relativePath)) {
	case jsonExtensionConstant, snippetsExtensionConstant:
		return true
	default:
		return false
	}
}

// minifyResource writes a whitespace-free copy of JSON content with comments and
// trailing commas removed. Content that still does not parse is copied verbatim.
func minifyResource(sourcePath string, destinationPath string) (bool, error) {
	sourceInfo, statError := os.Stat(sourcePath)
	if statError != nil {
		return false, fmt.Errorf(readResourceErrorTemplateConstant, sourcePath, statError)
	}
	content, readError := os.ReadFile(sourcePath)
	if readError != nil {
		return false, fmt.Errorf(readResourceErrorTemplateConstant, sourcePath, readError)
	}
	stripped := pretty.Spec(content)
	if !gjson.ValidBytes(stripped) {
		return false, writeFile(destinationPath, content, sourceInfo.Mode())
	}
	if writeError := writeFile(destinationPath, pretty.Ugly(stripped), sourceInfo.Mode()); writeError != nil {
		return false, writeError
	}
	return true, nil
}
