package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/vsxbuild/cmd/cli/tasks"
)

func (application *Application) registerCommands(cobraCommand *cobra.Command) {
	taskBuilder := &tasks.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		HumanReadableLoggingProvider: application.humanReadableLoggingEnabled,
		ConfigurationProvider:        application.taskCommandConfiguration,
	}

	for _, build := range []func() (*cobra.Command, error){
		taskBuilder.BuildRunCommand,
		taskBuilder.BuildListCommand,
		taskBuilder.BuildPlanCommand,
	} {
		command, buildError := build()
		if buildError != nil {
			continue
		}
		cobraCommand.AddCommand(command)
	}
}
