package utils

import (
	"context"
	"strings"
)

const (
	configurationFilePathContextKeyConstant = commandContextKey("configurationFilePath")
	releaseContextKeyConstant               = commandContextKey("releaseContext")
	logLevelContextKeyConstant              = commandContextKey("logLevel")
)

type commandContextKey string

// ReleaseContext carries release parameters supplied on the command line.
type ReleaseContext struct {
	NewVersion string
}

// CommandContextAccessor manages values stored in command execution contexts.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithConfigurationFilePath attaches the configuration file path to the provided context.
func (accessor CommandContextAccessor) WithConfigurationFilePath(parentContext context.Context, configurationFilePath string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, configurationFilePathContextKeyConstant, configurationFilePath)
}

// WithReleaseContext attaches release details when a version is present.
func (accessor CommandContextAccessor) WithReleaseContext(parentContext context.Context, release ReleaseContext) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	normalizedVersion := strings.TrimSpace(release.NewVersion)
	if len(normalizedVersion) == 0 {
		return parentContext
	}
	return context.WithValue(parentContext, releaseContextKeyConstant, ReleaseContext{NewVersion: normalizedVersion})
}

// WithLogLevel attaches the effective log level to the provided context.
func (accessor CommandContextAccessor) WithLogLevel(parentContext context.Context, logLevel string) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	trimmedLogLevel := strings.TrimSpace(logLevel)
	if len(trimmedLogLevel) == 0 {
		return parentContext
	}
	return context.WithValue(parentContext, logLevelContextKeyConstant, trimmedLogLevel)
}

// ConfigurationFilePath extracts the configuration file path from the provided context.
func (accessor CommandContextAccessor) ConfigurationFilePath(executionContext context.Context) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	configurationFilePath, configurationFilePathAvailable := executionContext.Value(configurationFilePathContextKeyConstant).(string)
	if !configurationFilePathAvailable {
		return "", false
	}
	return configurationFilePath, true
}

// ReleaseContext extracts release details from the provided execution context.
func (accessor CommandContextAccessor) ReleaseContext(executionContext context.Context) (ReleaseContext, bool) {
	if executionContext == nil {
		return ReleaseContext{}, false
	}
	value, valueAvailable := executionContext.Value(releaseContextKeyConstant).(ReleaseContext)
	if !valueAvailable {
		return ReleaseContext{}, false
	}
	return value, true
}

// LogLevel extracts the effective log level from the provided context.
func (accessor CommandContextAccessor) LogLevel(executionContext context.Context) (string, bool) {
	if executionContext == nil {
		return "", false
	}
	value, valueAvailable := executionContext.Value(logLevelContextKeyConstant).(string)
	if !valueAvailable {
		return "", false
	}
	return value, true
}
