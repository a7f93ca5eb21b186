package extensions

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/mod/semver"

	"github.com/tyemirov/vsxbuild/internal/execshell"
	"github.com/tyemirov/vsxbuild/internal/manifest"
	"github.com/tyemirov/vsxbuild/pkg/taskrunner"
)

const (
	versionSubcommandConstant            = "version"
	newVersionFlagConstant               = "--new-version"
	workingDirectoryFlagConstant         = "--cwd"
	noGitTagVersionFlagConstant          = "--no-git-tag-version"
	semverPrefixConstant                 = "v"
	versionBumpErrorPrefixConstant       = "failed to bump up version: "
	versionNotSemverMessageConstant      = "Requested version is not valid semver; passing it through unchanged"
	versionMismatchMessageConstant       = "Extension manifest version differs from requested version"
	manifestUnreadableMessageConstant    = "Unable to verify bumped extension manifest"
	versionBumpedMessageConstant         = "Bumped extension version"
	versionBumpSkippedMessageConstant    = "No version supplied; skipping version bump"
	versionBumpRejectedMessageConstant   = "Extension version bump failed"
	extensionFieldNameConstant           = "extension"
	versionFieldNameConstant             = "version"
	manifestVersionFieldNameConstant     = "manifest_version"
	executorNotConfiguredMessageConstant = "extension command executor not configured"
)

// ErrExecutorNotConfigured indicates a builder was constructed without a command executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)

// CommandExecutor runs external tool commands.
type CommandExecutor interface {
	Execute(ctx context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// VersionBumpError reports a failed version bump with the tool's diagnostics.
type VersionBumpError struct {
	Extension string
	Detail    string
	Cause     error
}

// Error renders the bump failure with the tool's standard error.
func (bumpError VersionBumpError) Error() string {
	return versionBumpErrorPrefixConstant + bumpError.Detail
}

// Unwrap exposes the command failure.
func (bumpError VersionBumpError) Unwrap() error {
	return bumpError.Cause
}

// VersionBumper rewrites extension versions through the package manager.
type VersionBumper struct {
	packageManager execshell.ToolCommand
	executor       CommandExecutor
	layout         Layout
	logger         *zap.Logger
}

// NewVersionBumper constructs a VersionBumper.
func NewVersionBumper(packageManager execshell.ToolCommand, executor CommandExecutor, layout Layout, logger *zap.Logger) (*VersionBumper, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VersionBumper{packageManager: packageManager, executor: executor, layout: layout, logger: logger}, nil
}

// Bump sets the version of one extension. A blank version does nothing.
func (bumper *VersionBumper) Bump(ctx context.Context, extensionName string, version string) error {
	if len(version) == 0 {
		bumper.logger.Debug(versionBumpSkippedMessageConstant, zap.String(extensionFieldNameConstant, extensionName))
		return nil
	}
	if !isSemanticVersion(version) {
		bumper.logger.Warn(versionNotSemverMessageConstant, zap.String(versionFieldNameConstant, version))
	}

	sourceDirectory := bumper.layout.SourceDirectory(extensionName)
	command := bumper.packageManager.Command("",
		versionSubcommandConstant,
		newVersionFlagConstant, version,
		workingDirectoryFlagConstant, sourceDirectory,
		noGitTagVersionFlagConstant,
	)
	if _, executionError := bumper.executor.Execute(ctx, command); executionError != nil {
		return VersionBumpError{Extension: extensionName, Detail: bumpFailureDetail(executionError), Cause: executionError}
	}

	bumper.verifyManifest(extensionName, sourceDirectory, version)
	return nil
}

// BumpAll bumps every extension concurrently and reports each outcome. A blank
// version produces no outcomes.
func (bumper *VersionBumper) BumpAll(ctx context.Context, extensionNames []string, version string) taskrunner.Outcomes {
	if len(version) == 0 {
		bumper.logger.Debug(versionBumpSkippedMessageConstant)
		return nil
	}
	units := make([]taskrunner.Unit, 0, len(extensionNames))
	for _, extensionName := range extensionNames {
		name := extensionName
		units = append(units, taskrunner.Unit{
			Name: name,
			Action: func(unitContext context.Context) error {
				return bumper.Bump(unitContext, name, version)
			},
		})
	}
	return taskrunner.Settle(ctx, units...)
}

// LogOutcomes records how every extension bump settled.
func (bumper *VersionBumper) LogOutcomes(outcomes taskrunner.Outcomes) {
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			bumper.logger.Error(versionBumpRejectedMessageConstant, zap.String(extensionFieldNameConstant, outcome.Name), zap.Error(outcome.Err))
		}
	}
}

func (bumper *VersionBumper) verifyManifest(extensionName string, sourceDirectory string, version string) {
	extensionManifest, manifestError := manifest.Read(sourceDirectory)
	if manifestError != nil {
		bumper.logger.Warn(manifestUnreadableMessageConstant, zap.String(extensionFieldNameConstant, extensionName), zap.Error(manifestError))
		return
	}
	if strings.TrimPrefix(extensionManifest.Version, semverPrefixConstant) != strings.TrimPrefix(version, semverPrefixConstant) {
		bumper.logger.Warn(versionMismatchMessageConstant,
			zap.String(extensionFieldNameConstant, extensionName),
			zap.String(versionFieldNameConstant, version),
			zap.String(manifestVersionFieldNameConstant, extensionManifest.Version),
		)
		return
	}
	bumper.logger.Info(versionBumpedMessageConstant, zap.String(extensionFieldNameConstant, extensionName), zap.String(versionFieldNameConstant, version))
}

func isSemanticVersion(version string) bool {
	candidate := version
	if !strings.HasPrefix(candidate, semverPrefixConstant) {
		candidate = semverPrefixConstant + candidate
	}
	return semver.IsValid(candidate)
}

func bumpFailureDetail(executionError error) string {
	var failedError execshell.CommandFailedError
	if errors.As(executionError, &failedError) {
		if standardError := strings.TrimSpace(failedError.Result.StandardError); len(standardError) > 0 {
			return standardError
		}
	}
	return executionError.Error()
}
