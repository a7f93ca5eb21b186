// Package tasks exposes the marketplace task registry through the run, tasks, and plan commands.
package tasks

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/vsxbuild/internal/execshell"
	"github.com/tyemirov/vsxbuild/internal/extensions"
	flagutils "github.com/tyemirov/vsxbuild/internal/utils/flags"
	"github.com/tyemirov/vsxbuild/internal/vsce"
	"github.com/tyemirov/vsxbuild/pkg/taskrunner"
)

const (
	packageManagerToolErrorTemplate = "invalid package manager command: %w"
	packagerToolErrorTemplate       = "invalid packager command: %w"
	invalidMarketplaceErrorTemplate = "invalid marketplace configuration: %w"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the task commands around a registry generated from configuration.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
	CommandRunner                execshell.CommandRunner
	Packager                     vsce.Packager
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return CommandConfiguration{Tools: DefaultToolsConfiguration(), Marketplace: extensions.DefaultMarketplaceConfiguration()}.Sanitize()
	}
	return builder.ConfigurationProvider().Sanitize()
}

// BuildRegistry generates the task registry for the provided command invocation.
func (builder *CommandBuilder) BuildRegistry(command *cobra.Command) (*taskrunner.Registry, error) {
	configuration := builder.resolveConfiguration()
	if validationError := configuration.Marketplace.Validate(); validationError != nil {
		return nil, fmt.Errorf(invalidMarketplaceErrorTemplate, validationError)
	}

	failurePolicy, policyError := execshell.ParseFailurePolicy(configuration.FailurePolicy)
	if policyError != nil {
		return nil, policyError
	}

	logger := builder.resolveLogger()
	humanReadable := false
	if builder.HumanReadableLoggingProvider != nil {
		humanReadable = builder.HumanReadableLoggingProvider()
	}

	commandRunner := builder.CommandRunner
	if commandRunner == nil {
		commandRunner = execshell.NewOSCommandRunner()
	}
	executor, executorError := execshell.NewShellExecutor(logger, commandRunner, execshell.ExecutorSettings{
		HumanReadableLogging: humanReadable,
		FailurePolicy:        failurePolicy,
		CommandTimeout:       configuration.CommandTimeout,
	})
	if executorError != nil {
		return nil, executorError
	}

	packageManager, packageManagerError := execshell.ParseToolCommand(configuration.Tools.PackageManager)
	if packageManagerError != nil {
		return nil, fmt.Errorf(packageManagerToolErrorTemplate, packageManagerError)
	}

	packager := builder.Packager
	if packager == nil {
		packagerTool, packagerToolError := execshell.ParseToolCommand(configuration.Tools.Packager)
		if packagerToolError != nil {
			return nil, fmt.Errorf(packagerToolErrorTemplate, packagerToolError)
		}
		cliPackager, packagerError := vsce.NewCLIPackager(packagerTool, executor, logger)
		if packagerError != nil {
			return nil, packagerError
		}
		packager = cliPackager
	}

	return extensions.BuildRegistry(extensions.PipelineDependencies{
		Configuration:  configuration.Marketplace,
		PackageManager: packageManager,
		Executor:       executor,
		Packager:       packager,
		Logger:         logger,
		Version:        resolveNewVersion(command, configuration.Marketplace.NewVersion),
	})
}

func resolveNewVersion(command *cobra.Command, configured string) string {
	if release, available := flagutils.ResolveReleaseContext(command); available {
		return release.NewVersion
	}
	return strings.TrimSpace(configured)
}

func (builder *CommandBuilder) completeTaskNames(command *cobra.Command, arguments []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	registry, registryError := builder.BuildRegistry(command)
	if registryError != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	candidates := make([]string, 0, len(registry.Names()))
	for _, task := range registry.Tasks() {
		if !strings.HasPrefix(task.Name(), toComplete) {
			continue
		}
		candidate := task.Name()
		if description := task.Description(); len(description) > 0 {
			candidate += "\t" + description
		}
		candidates = append(candidates, candidate)
	}
	return candidates, cobra.ShellCompDirectiveNoFileComp
}
