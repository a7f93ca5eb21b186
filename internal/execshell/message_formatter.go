package execshell

import (
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
)

const (
	startedMessageTemplateConstant          = "Running %s"
	startedInDirectoryTemplateConstant      = "Running %s (in %s)"
	succeededMessageTemplateConstant        = "Finished %s"
	failedMessageTemplateConstant           = "Failed %s (exit code %d: %s)"
	failedWithoutDetailTemplateConstant     = "Failed %s (exit code %d)"
	executionFailureMessageTemplateConstant = "Unable to run %s: %v"
)

// CommandMessageFormatter renders human-readable lifecycle messages.
type CommandMessageFormatter struct{}

// BuildStartedMessage describes a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	rendered := RenderCommandLine(command)
	workingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(workingDirectory) == 0 {
		return fmt.Sprintf(startedMessageTemplateConstant, rendered)
	}
	return fmt.Sprintf(startedInDirectoryTemplateConstant, rendered, workingDirectory)
}

// BuildSuccessMessage describes a command that completed.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return fmt.Sprintf(succeededMessageTemplateConstant, RenderCommandLine(command))
}

// BuildFailureMessage describes a command classified as failed.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	detail := firstLine(result.StandardError)
	if len(detail) == 0 {
		return fmt.Sprintf(failedWithoutDetailTemplateConstant, RenderCommandLine(command), result.ExitCode)
	}
	return fmt.Sprintf(failedMessageTemplateConstant, RenderCommandLine(command), result.ExitCode, detail)
}

// BuildExecutionFailureMessage describes a command that could not be started.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, cause error) string {
	return fmt.Sprintf(executionFailureMessageTemplateConstant, RenderCommandLine(command), cause)
}

// RenderCommandLine quotes the command for display.
func RenderCommandLine(command ShellCommand) string {
	words := make([]string, 0, len(command.Details.Arguments)+1)
	words = append(words, string(command.Name))
	words = append(words, command.Details.Arguments...)
	return shellquote.Join(words...)
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) > 0 {
			return trimmed
		}
	}
	return ""
}
