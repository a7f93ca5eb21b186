package tasks

import (
	"strings"
	"time"

	"github.com/tyemirov/vsxbuild/internal/extensions"
)

const (
	defaultPackageManagerCommand = "yarn"
	defaultPackagerCommand       = "vsce"
)

// ToolsConfiguration names the external programs the marketplace tasks shell out to.
type ToolsConfiguration struct {
	PackageManager string `mapstructure:"package_manager" yaml:"package_manager"`
	Packager       string `mapstructure:"packager" yaml:"packager"`
}

// DefaultToolsConfiguration returns yarn and vsce resolved from PATH.
func DefaultToolsConfiguration() ToolsConfiguration {
	return ToolsConfiguration{
		PackageManager: defaultPackageManagerCommand,
		Packager:       defaultPackagerCommand,
	}
}

// Sanitize trims the configured command lines and restores blank ones to their defaults.
func (configuration ToolsConfiguration) Sanitize() ToolsConfiguration {
	sanitized := configuration
	sanitized.PackageManager = strings.TrimSpace(configuration.PackageManager)
	if len(sanitized.PackageManager) == 0 {
		sanitized.PackageManager = defaultPackageManagerCommand
	}
	sanitized.Packager = strings.TrimSpace(configuration.Packager)
	if len(sanitized.Packager) == 0 {
		sanitized.Packager = defaultPackagerCommand
	}
	return sanitized
}

// CommandConfiguration captures everything the task commands need to build the registry.
type CommandConfiguration struct {
	FailurePolicy  string
	CommandTimeout time.Duration
	Tools          ToolsConfiguration
	Marketplace    extensions.MarketplaceConfiguration
}

// Sanitize normalizes nested configuration values.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.FailurePolicy = strings.TrimSpace(configuration.FailurePolicy)
	if configuration.CommandTimeout < 0 {
		sanitized.CommandTimeout = 0
	}
	sanitized.Tools = configuration.Tools.Sanitize()
	sanitized.Marketplace = configuration.Marketplace.Sanitize()
	return sanitized
}
