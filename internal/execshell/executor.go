package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	gitCommandNameStringConstant              = "git"
	loggerNotConfiguredMessageConstant        = "shell executor logger not configured"
	commandRunnerNotConfiguredMessageConstant = "shell executor command runner not configured"
	commandNameMissingMessageConstant         = "shell command name not provided"
	commandStartMessageConstant               = "command execution starting"
	commandSuccessMessageConstant             = "command execution completed"
	commandFailureMessageConstant             = "command returned non-zero status"
	commandStandardErrorMessageConstant       = "command wrote to standard error"
	commandRunnerErrorMessageConstant         = "command execution error"
	commandNameFieldNameConstant              = "command"
	commandArgumentsFieldNameConstant         = "arguments"
	workingDirectoryFieldNameConstant         = "working_directory"
	exitCodeFieldNameConstant                 = "exit_code"
	standardErrorFieldNameConstant            = "stderr"
	failurePolicyFieldNameConstant            = "failure_policy"
	maximumFailureDetailLinesConstant         = 3
)

// CommandName identifies an executable name.
type CommandName string

// CommandGit names the git executable.
const CommandGit CommandName = CommandName(gitCommandNameStringConstant)

// CommandDetails describes command invocation properties.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand represents a fully qualified command invocation. A non-empty
// FailurePolicy overrides the executor's configured policy for this command.
type ShellCommand struct {
	Name          CommandName
	Details       CommandDetails
	FailurePolicy FailurePolicy
}

// ExecutionResult captures observable command results.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner executes shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// ExecutorSettings tunes how results are classified and logged.
type ExecutorSettings struct {
	HumanReadableLogging bool
	FailurePolicy        FailurePolicy
	CommandTimeout       time.Duration
}

// ShellExecutor orchestrates running shell commands with logging.
type ShellExecutor struct {
	commandRunner    CommandRunner
	logger           *zap.Logger
	settings         ExecutorSettings
	messageFormatter CommandMessageFormatter
}

var (
	// ErrLoggerNotConfigured indicates the logger dependency was missing.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrCommandRunnerNotConfigured indicates the command runner dependency was missing.
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
	// ErrCommandNameMissing indicates the command name was not provided.
	ErrCommandNameMissing = errors.New(commandNameMissingMessageConstant)
)

// CommandFailedError describes commands that exited non-zero or, under the
// standard error policy, produced output on standard error.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

const (
	commandFailureErrorMessageTemplateConstant       = "%s command exited with code %d"
	commandStandardErrorErrorMessageTemplateConstant = "%s command reported errors"
)

// Error describes the failure in a readable format.
func (commandError CommandFailedError) Error() string {
	baseMessage := fmt.Sprintf(commandFailureErrorMessageTemplateConstant, commandError.Command.Name, commandError.Result.ExitCode)
	if commandError.Result.ExitCode == 0 {
		baseMessage = fmt.Sprintf(commandStandardErrorErrorMessageTemplateConstant, commandError.Command.Name)
	}

	if len(commandError.Command.Details.Arguments) > 0 {
		baseMessage = fmt.Sprintf("%s (%s)", baseMessage, strings.Join(commandError.Command.Details.Arguments, " "))
	}

	detail := strings.TrimSpace(commandError.Result.StandardError)
	if len(detail) == 0 {
		detail = strings.TrimSpace(commandError.Result.StandardOutput)
	}
	if len(detail) > 0 {
		lines := strings.Split(detail, "\n")
		if len(lines) > maximumFailureDetailLinesConstant {
			lines = lines[:maximumFailureDetailLinesConstant]
		}
		normalized := make([]string, 0, len(lines))
		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			normalized = append(normalized, trimmed)
		}
		if len(normalized) > 0 {
			baseMessage = fmt.Sprintf("%s: %s", baseMessage, strings.Join(normalized, " | "))
		}
	}

	return baseMessage
}

// CommandExecutionError wraps unexpected execution failures from the runner.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

const commandExecutionErrorMessageTemplateConstant = "%s command execution failed: %v"

// Error describes the underlying runner failure.
func (executionError CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorMessageTemplateConstant, executionError.Command.Name, executionError.Cause)
}

// Unwrap exposes the underlying error.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}

// NewShellExecutor builds an executor for the provided runner and logger.
func NewShellExecutor(logger *zap.Logger, commandRunner CommandRunner, settings ExecutorSettings) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if commandRunner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}
	if len(settings.FailurePolicy) == 0 {
		settings.FailurePolicy = FailurePolicyStandardError
	}
	return &ShellExecutor{
		commandRunner:    commandRunner,
		logger:           logger,
		settings:         settings,
		messageFormatter: CommandMessageFormatter{},
	}, nil
}

// Execute runs the provided shell command and logs lifecycle events.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	if len(command.Name) == 0 {
		return ExecutionResult{}, ErrCommandNameMissing
	}
	if executionContext == nil {
		executionContext = context.Background()
	}

	if executor.settings.HumanReadableLogging {
		executor.logger.Info(executor.messageFormatter.BuildStartedMessage(command))
	} else {
		executor.logger.Info(commandStartMessageConstant,
			zap.String(commandNameFieldNameConstant, string(command.Name)),
			zap.Strings(commandArgumentsFieldNameConstant, command.Details.Arguments),
			zap.String(workingDirectoryFieldNameConstant, command.Details.WorkingDirectory),
		)
	}

	if executor.settings.CommandTimeout > 0 {
		var cancel context.CancelFunc
		executionContext, cancel = context.WithTimeout(executionContext, executor.settings.CommandTimeout)
		defer cancel()
	}

	executionResult, runnerError := executor.commandRunner.Run(executionContext, command)
	if runnerError != nil {
		if executor.settings.HumanReadableLogging {
			executor.logger.Error(executor.messageFormatter.BuildExecutionFailureMessage(command, runnerError))
		} else {
			executor.logger.Error(commandRunnerErrorMessageConstant,
				zap.String(commandNameFieldNameConstant, string(command.Name)),
				zap.Error(runnerError),
			)
		}
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runnerError}
	}

	if executionResult.ExitCode != 0 {
		executor.logFailure(command, executionResult, commandFailureMessageConstant)
		return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
	}

	failurePolicy := executor.failurePolicyFor(command)
	if len(strings.TrimSpace(executionResult.StandardError)) > 0 {
		if failurePolicy.FailsOnStandardError() {
			executor.logFailure(command, executionResult, commandStandardErrorMessageConstant)
			return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
		}
		executor.logger.Warn(commandStandardErrorMessageConstant,
			zap.String(commandNameFieldNameConstant, string(command.Name)),
			zap.String(standardErrorFieldNameConstant, executionResult.StandardError),
			zap.String(failurePolicyFieldNameConstant, string(failurePolicy)),
		)
	}

	if executor.settings.HumanReadableLogging {
		executor.logger.Info(executor.messageFormatter.BuildSuccessMessage(command))
	} else {
		executor.logger.Info(commandSuccessMessageConstant,
			zap.String(commandNameFieldNameConstant, string(command.Name)),
			zap.Int(exitCodeFieldNameConstant, executionResult.ExitCode),
		)
	}
	return executionResult, nil
}

// ExecuteGit runs the git executable with the provided details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

func (executor *ShellExecutor) failurePolicyFor(command ShellCommand) FailurePolicy {
	if len(command.FailurePolicy) > 0 {
		return command.FailurePolicy
	}
	return executor.settings.FailurePolicy
}

func (executor *ShellExecutor) logFailure(command ShellCommand, executionResult ExecutionResult, structuredMessage string) {
	if executor.settings.HumanReadableLogging {
		executor.logger.Warn(executor.messageFormatter.BuildFailureMessage(command, executionResult))
		return
	}
	executor.logger.Warn(structuredMessage,
		zap.String(commandNameFieldNameConstant, string(command.Name)),
		zap.Int(exitCodeFieldNameConstant, executionResult.ExitCode),
		zap.String(standardErrorFieldNameConstant, executionResult.StandardError),
	)
}
