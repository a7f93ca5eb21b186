package vsce

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/tyemirov/vsxbuild/internal/execshell"
	"github.com/tyemirov/vsxbuild/internal/manifest"
)

const (
	packageSubcommandConstant              = "package"
	publishSubcommandConstant              = "publish"
	noDependenciesFlagConstant             = "--no-dependencies"
	personalAccessTokenVariableConstant    = "VSCE_PAT"
	operationPackageConstant               = "createVSIX"
	operationPublishConstant               = "publish"
	packagingErrorTemplateConstant         = "%s failed in %s: %v"
	executorMissingMessageConstant         = "vsce packager executor not configured"
	workingDirectoryMissingMessageConstant = "vsce working directory not provided"
	expectedArchiveMessageConstant         = "Packaging extension"
	publishingMessageConstant              = "Publishing extension"
	manifestUnavailableMessageConstant     = "Extension manifest unavailable"
	archiveFieldNameConstant               = "archive"
	versionFieldNameConstant               = "version"
	extensionFieldNameConstant             = "extension"
	workingDirectoryFieldNameConstant      = "working_directory"
)

var (
	// ErrExecutorNotConfigured indicates the packager was built without a command executor.
	ErrExecutorNotConfigured = errors.New(executorMissingMessageConstant)
	// ErrWorkingDirectoryMissing indicates packaging options lacked a working directory.
	ErrWorkingDirectoryMissing = errors.New(workingDirectoryMissingMessageConstant)
)

// Options are handed to the packager unchanged for every call.
type Options struct {
	WorkingDirectory string
	Dependencies     bool
}

// Packager produces and publishes extension archives.
type Packager interface {
	CreateVSIX(ctx context.Context, options Options) error
	Publish(ctx context.Context, options Options) error
}

// CommandExecutor runs packager commands.
type CommandExecutor interface {
	Execute(ctx context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// EnvironmentLookup resolves environment variables.
type EnvironmentLookup func(name string) (string, bool)

// PackagingError wraps a failed packaging or publishing call.
type PackagingError struct {
	Operation        string
	WorkingDirectory string
	Cause            error
}

// Error describes the failed operation.
func (packagingError PackagingError) Error() string {
	return fmt.Sprintf(packagingErrorTemplateConstant, packagingError.Operation, packagingError.WorkingDirectory, packagingError.Cause)
}

// Unwrap exposes the underlying failure.
func (packagingError PackagingError) Unwrap() error {
	return packagingError.Cause
}

// CLIPackager drives the vsce command line tool.
type CLIPackager struct {
	tool              execshell.ToolCommand
	executor          CommandExecutor
	logger            *zap.Logger
	environmentLookup EnvironmentLookup
}

// NewCLIPackager constructs a CLIPackager around the configured tool command.
func NewCLIPackager(tool execshell.ToolCommand, executor CommandExecutor, logger *zap.Logger) (*CLIPackager, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	if len(strings.TrimSpace(string(tool.Name))) == 0 {
		return nil, execshell.ErrToolCommandEmpty
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CLIPackager{
		tool:              tool,
		executor:          executor,
		logger:            logger,
		environmentLookup: os.LookupEnv,
	}, nil
}

// WithEnvironmentLookup replaces the environment source used for publishing credentials.
func (packager *CLIPackager) WithEnvironmentLookup(lookup EnvironmentLookup) *CLIPackager {
	if lookup != nil {
		packager.environmentLookup = lookup
	}
	return packager
}

// CreateVSIX packages the extension found in the working directory.
func (packager *CLIPackager) CreateVSIX(ctx context.Context, options Options) error {
	if len(strings.TrimSpace(options.WorkingDirectory)) == 0 {
		return ErrWorkingDirectoryMissing
	}
	packager.logManifest(expectedArchiveMessageConstant, options.WorkingDirectory)

	command := packager.tool.ExitCodeCommand(options.WorkingDirectory, packager.arguments(packageSubcommandConstant, options)...)
	if _, executionError := packager.executor.Execute(ctx, command); executionError != nil {
		return PackagingError{Operation: operationPackageConstant, WorkingDirectory: options.WorkingDirectory, Cause: executionError}
	}
	return nil
}

// Publish publishes the extension found in the working directory. VSCE_PAT is
// forwarded when present in the environment.
func (packager *CLIPackager) Publish(ctx context.Context, options Options) error {
	if len(strings.TrimSpace(options.WorkingDirectory)) == 0 {
		return ErrWorkingDirectoryMissing
	}
	packager.logManifest(publishingMessageConstant, options.WorkingDirectory)

	command := packager.tool.ExitCodeCommand(options.WorkingDirectory, packager.arguments(publishSubcommandConstant, options)...)
	if token, available := packager.environmentLookup(personalAccessTokenVariableConstant); available && len(token) > 0 {
		command.Details.EnvironmentVariables = map[string]string{personalAccessTokenVariableConstant: token}
	}
	if _, executionError := packager.executor.Execute(ctx, command); executionError != nil {
		return PackagingError{Operation: operationPublishConstant, WorkingDirectory: options.WorkingDirectory, Cause: executionError}
	}
	return nil
}

func (packager *CLIPackager) arguments(subcommand string, options Options) []string {
	arguments := []string{subcommand}
	if !options.Dependencies {
		arguments = append(arguments, noDependenciesFlagConstant)
	}
	return arguments
}

func (packager *CLIPackager) logManifest(message string, workingDirectory string) {
	extensionManifest, manifestError := manifest.Read(workingDirectory)
	if manifestError != nil {
		packager.logger.Warn(manifestUnavailableMessageConstant, zap.String(workingDirectoryFieldNameConstant, workingDirectory), zap.Error(manifestError))
		return
	}
	fields := []zap.Field{
		zap.String(extensionFieldNameConstant, extensionManifest.Name),
		zap.String(versionFieldNameConstant, extensionManifest.Version),
		zap.String(workingDirectoryFieldNameConstant, workingDirectory),
	}
	if archiveName, archiveError := extensionManifest.ArchiveFileName(); archiveError == nil {
		fields = append(fields, zap.String(archiveFieldNameConstant, archiveName))
	}
	packager.logger.Info(message, fields...)
}
