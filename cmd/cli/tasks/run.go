package tasks

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/vsxbuild/internal/utils"
	"github.com/tyemirov/vsxbuild/pkg/taskrunner"
)

const (
	runCommandUseName          = "run <task> [task...]"
	runCommandShortDescription = "Run marketplace tasks in order"
	runCommandLongDescription  = "Runs the named tasks one after another and stops at the first failure. Unknown task names are rejected before anything runs."
	runStartedMessage          = "Running marketplace tasks"
	tasksFieldName             = "tasks"
	configurationFileFieldName = "configuration_file"
	logLevelFieldName          = "log_level"
)

// BuildRunCommand constructs the run command.
func (builder *CommandBuilder) BuildRunCommand() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:               runCommandUseName,
		Short:             runCommandShortDescription,
		Long:              runCommandLongDescription,
		Args:              cobra.MinimumNArgs(1),
		ValidArgsFunction: builder.completeTaskNames,
		RunE:              builder.runTasks,
	}
	return command, nil
}

func (builder *CommandBuilder) runTasks(command *cobra.Command, arguments []string) error {
	registry, registryError := builder.BuildRegistry(command)
	if registryError != nil {
		return registryError
	}

	logger := builder.resolveLogger()
	runner, runnerError := taskrunner.NewRunner(registry, logger)
	if runnerError != nil {
		return runnerError
	}
	logger.Info(runStartedMessage, invocationFields(command.Context(), arguments)...)

	report, runError := runner.Run(command.Context(), arguments...)
	if len(report.Results) > 0 {
		fmt.Fprintln(command.OutOrStdout(), taskrunner.RenderSummaryLine(report))
	}
	return runError
}

func invocationFields(executionContext context.Context, taskNames []string) []zap.Field {
	accessor := utils.NewCommandContextAccessor()
	fields := []zap.Field{zap.Strings(tasksFieldName, taskNames)}
	if configurationFile, available := accessor.ConfigurationFilePath(executionContext); available && len(configurationFile) > 0 {
		fields = append(fields, zap.String(configurationFileFieldName, configurationFile))
	}
	if logLevel, available := accessor.LogLevel(executionContext); available {
		fields = append(fields, zap.String(logLevelFieldName, logLevel))
	}
	return fields
}
