package extensions

import (
	"errors"
	"fmt"
	"strings"
)

const (
	defaultExtensionsDirectoryConstant = "extensions"
	defaultOutputDirectoryConstant     = "out-gitpod-marketplace"
	defaultTaskPrefixConstant          = "gitpod"
	defaultCleanTaskNameConstant       = "clean-gitpod-marketplace-extensions"
	defaultBumpTaskNameConstant        = "bump-marketplace-extensions"
	defaultWebviewScriptConstant       = "build:webview"
	defaultWebviewAssetsConstant       = "public"

	extensionNameMissingMessageConstant       = "extension name not provided"
	duplicateExtensionTemplateConstant        = "extension %q configured more than once"
	invalidExtensionNameTemplateConstant      = "extension name %q must not contain path separators"
	outputDirectoryMissingMessageConstant     = "marketplace output directory not provided"
	extensionsDirectoryMissingMessageConstant = "marketplace extensions directory not provided"
)

var (
	// ErrExtensionNameMissing indicates an extension entry without a name.
	ErrExtensionNameMissing = errors.New(extensionNameMissingMessageConstant)
	// ErrOutputDirectoryMissing indicates the marketplace output directory was blank.
	ErrOutputDirectoryMissing = errors.New(outputDirectoryMissingMessageConstant)
	// ErrExtensionsDirectoryMissing indicates the extensions source directory was blank.
	ErrExtensionsDirectoryMissing = errors.New(extensionsDirectoryMissingMessageConstant)
)

// WebviewConfiguration controls the webview asset build of an extension.
type WebviewConfiguration struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Script  string `mapstructure:"script" yaml:"script"`
	Assets  string `mapstructure:"assets" yaml:"assets"`
	Task    string `mapstructure:"task" yaml:"task"`
}

// ExtensionConfiguration describes one marketplace extension.
type ExtensionConfiguration struct {
	Name    string               `mapstructure:"name" yaml:"name"`
	Ignore  []string             `mapstructure:"ignore" yaml:"ignore"`
	Webview WebviewConfiguration `mapstructure:"webview" yaml:"webview"`
}

// MarketplaceConfiguration describes the marketplace build layout and extension set.
type MarketplaceConfiguration struct {
	ExtensionsDirectory string                   `mapstructure:"extensions_directory" yaml:"extensions_directory"`
	OutputDirectory     string                   `mapstructure:"output_directory" yaml:"output_directory"`
	TaskPrefix          string                   `mapstructure:"task_prefix" yaml:"task_prefix"`
	CleanTask           string                   `mapstructure:"clean_task" yaml:"clean_task"`
	BumpTask            string                   `mapstructure:"bump_task" yaml:"bump_task"`
	NewVersion          string                   `mapstructure:"new_version" yaml:"new_version"`
	Extensions          []ExtensionConfiguration `mapstructure:"extensions" yaml:"extensions"`
}

// DefaultMarketplaceConfiguration returns the gitpod marketplace layout.
func DefaultMarketplaceConfiguration() MarketplaceConfiguration {
	return MarketplaceConfiguration{
		ExtensionsDirectory: defaultExtensionsDirectoryConstant,
		OutputDirectory:     defaultOutputDirectoryConstant,
		TaskPrefix:          defaultTaskPrefixConstant,
		CleanTask:           defaultCleanTaskNameConstant,
		BumpTask:            defaultBumpTaskNameConstant,
	}
}

// Sanitize trims values and fills blank settings with defaults.
func (configuration MarketplaceConfiguration) Sanitize() MarketplaceConfiguration {
	defaults := DefaultMarketplaceConfiguration()
	sanitized := MarketplaceConfiguration{
		ExtensionsDirectory: valueOrDefault(configuration.ExtensionsDirectory, defaults.ExtensionsDirectory),
		OutputDirectory:     valueOrDefault(configuration.OutputDirectory, defaults.OutputDirectory),
		TaskPrefix:          valueOrDefault(configuration.TaskPrefix, defaults.TaskPrefix),
		CleanTask:           valueOrDefault(configuration.CleanTask, defaults.CleanTask),
		BumpTask:            valueOrDefault(configuration.BumpTask, defaults.BumpTask),
		NewVersion:          strings.TrimSpace(configuration.NewVersion),
		Extensions:          make([]ExtensionConfiguration, 0, len(configuration.Extensions)),
	}
	for _, extension := range configuration.Extensions {
		sanitized.Extensions = append(sanitized.Extensions, extension.sanitize())
	}
	return sanitized
}

// Validate reports structural problems with the marketplace configuration.
func (configuration MarketplaceConfiguration) Validate() error {
	if len(strings.TrimSpace(configuration.OutputDirectory)) == 0 {
		return ErrOutputDirectoryMissing
	}
	if len(strings.TrimSpace(configuration.ExtensionsDirectory)) == 0 {
		return ErrExtensionsDirectoryMissing
	}
	seen := make(map[string]struct{}, len(configuration.Extensions))
	for _, extension := range configuration.Extensions {
		name := strings.TrimSpace(extension.Name)
		if len(name) == 0 {
			return ErrExtensionNameMissing
		}
		if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
			return fmt.Errorf(invalidExtensionNameTemplateConstant, name)
		}
		if _, exists := seen[name]; exists {
			return fmt.Errorf(duplicateExtensionTemplateConstant, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// ExtensionNames returns the configured extension names in order.
func (configuration MarketplaceConfiguration) ExtensionNames() []string {
	names := make([]string, 0, len(configuration.Extensions))
	for _, extension := range configuration.Extensions {
		names = append(names, extension.Name)
	}
	return names
}

func (extension ExtensionConfiguration) sanitize() ExtensionConfiguration {
	ignore := make([]string, 0, len(extension.Ignore))
	for _, pattern := range extension.Ignore {
		if trimmed := strings.TrimSpace(pattern); len(trimmed) > 0 {
			ignore = append(ignore, trimmed)
		}
	}
	return ExtensionConfiguration{
		Name:   strings.TrimSpace(extension.Name),
		Ignore: ignore,
		Webview: WebviewConfiguration{
			Enabled: extension.Webview.Enabled,
			Script:  valueOrDefault(extension.Webview.Script, defaultWebviewScriptConstant),
			Assets:  valueOrDefault(extension.Webview.Assets, defaultWebviewAssetsConstant),
			Task:    strings.TrimSpace(extension.Webview.Task),
		},
	}
}

func valueOrDefault(value string, defaultValue string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return defaultValue
	}
	return trimmed
}
