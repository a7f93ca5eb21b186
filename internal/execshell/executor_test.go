package execshell_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tyemirov/vsxbuild/internal/execshell"
)

const (
	testExecutionSuccessCaseNameConstant         = "success"
	testExecutionFailureCaseNameConstant         = "failure_exit_code"
	testExecutionRunnerErrorCaseNameConstant     = "runner_error"
	testStandardErrorStrictCaseNameConstant      = "stderr_fails_under_stderr_policy"
	testStandardErrorLenientCaseNameConstant     = "stderr_tolerated_under_exit_code_policy"
	testCommandArgumentConstant                  = "--version"
	testWorkingDirectoryConstant                 = "."
	testStandardErrorOutputConstant              = "failure"
	testRunnerFailureMessageConstant             = "runner failure"
	testLoggerInitializationCaseNameConstant     = "logger_validation"
	testRunnerInitializationCaseNameConstant     = "runner_validation"
	testSuccessfulInitializationCaseNameConstant = "successful_initialization"
	testYarnCommandNameConstant                  = "yarn"
)

type recordingCommandRunner struct {
	executionResult  execshell.ExecutionResult
	executionError   error
	recordedCommands []execshell.ShellCommand
	recordedContexts []context.Context
}

func (runner *recordingCommandRunner) Run(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.recordedCommands = append(runner.recordedCommands, command)
	runner.recordedContexts = append(runner.recordedContexts, executionContext)
	return runner.executionResult, runner.executionError
}

func TestShellExecutorInitializationValidation(testInstance *testing.T) {
	testCases := []struct {
		name          string
		logger        *zap.Logger
		runner        execshell.CommandRunner
		expectError   error
		expectSuccess bool
	}{
		{
			name:        testLoggerInitializationCaseNameConstant,
			logger:      nil,
			runner:      &recordingCommandRunner{},
			expectError: execshell.ErrLoggerNotConfigured,
		},
		{
			name:        testRunnerInitializationCaseNameConstant,
			logger:      zap.NewNop(),
			runner:      nil,
			expectError: execshell.ErrCommandRunnerNotConfigured,
		},
		{
			name:          testSuccessfulInitializationCaseNameConstant,
			logger:        zap.NewNop(),
			runner:        &recordingCommandRunner{},
			expectSuccess: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor, creationError := execshell.NewShellExecutor(testCase.logger, testCase.runner, execshell.ExecutorSettings{})
			if testCase.expectSuccess {
				require.NoError(testInstance, creationError)
				require.NotNil(testInstance, executor)
			} else {
				require.Error(testInstance, creationError)
				require.ErrorIs(testInstance, creationError, testCase.expectError)
			}
		})
	}
}

func TestShellExecutorExecuteBehavior(testInstance *testing.T) {
	testCases := []struct {
		name             string
		policy           execshell.FailurePolicy
		runnerResult     execshell.ExecutionResult
		runnerError      error
		expectErrorType  any
		expectedLogCount int
		expectedLevels   []zapcore.Level
	}{
		{
			name: testExecutionSuccessCaseNameConstant,
			runnerResult: execshell.ExecutionResult{
				StandardOutput: "ok",
				ExitCode:       0,
			},
			expectedLogCount: 2,
			expectedLevels:   []zapcore.Level{zap.InfoLevel, zap.InfoLevel},
		},
		{
			name: testExecutionFailureCaseNameConstant,
			runnerResult: execshell.ExecutionResult{
				StandardError: testStandardErrorOutputConstant,
				ExitCode:      1,
			},
			expectErrorType:  execshell.CommandFailedError{},
			expectedLogCount: 2,
			expectedLevels:   []zapcore.Level{zap.InfoLevel, zap.WarnLevel},
		},
		{
			name:             testExecutionRunnerErrorCaseNameConstant,
			runnerError:      errors.New(testRunnerFailureMessageConstant),
			expectErrorType:  execshell.CommandExecutionError{},
			expectedLogCount: 2,
			expectedLevels:   []zapcore.Level{zap.InfoLevel, zap.ErrorLevel},
		},
		{
			name:   testStandardErrorStrictCaseNameConstant,
			policy: execshell.FailurePolicyStandardError,
			runnerResult: execshell.ExecutionResult{
				StandardOutput: "done",
				StandardError:  "warning: deprecated option",
			},
			expectErrorType:  execshell.CommandFailedError{},
			expectedLogCount: 2,
			expectedLevels:   []zapcore.Level{zap.InfoLevel, zap.WarnLevel},
		},
		{
			name:   testStandardErrorLenientCaseNameConstant,
			policy: execshell.FailurePolicyExitCode,
			runnerResult: execshell.ExecutionResult{
				StandardOutput: "done",
				StandardError:  "warning: deprecated option",
			},
			expectedLogCount: 3,
			expectedLevels:   []zapcore.Level{zap.InfoLevel, zap.WarnLevel, zap.InfoLevel},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			observerCore, observerLogs := observer.New(zap.DebugLevel)
			logger := zap.New(observerCore)

			recordingRunner := &recordingCommandRunner{
				executionResult: testCase.runnerResult,
				executionError:  testCase.runnerError,
			}

			shellExecutor, creationError := execshell.NewShellExecutor(logger, recordingRunner, execshell.ExecutorSettings{FailurePolicy: testCase.policy})
			require.NoError(testInstance, creationError)

			command := execshell.ShellCommand{
				Name:    testYarnCommandNameConstant,
				Details: execshell.CommandDetails{Arguments: []string{testCommandArgumentConstant}, WorkingDirectory: testWorkingDirectoryConstant},
			}
			executionResult, executionError := shellExecutor.Execute(context.Background(), command)

			if testCase.expectErrorType != nil {
				require.Error(testInstance, executionError)
				require.IsType(testInstance, testCase.expectErrorType, executionError)
				require.Empty(testInstance, executionResult.StandardOutput)
			} else {
				require.NoError(testInstance, executionError)
				require.Equal(testInstance, testCase.runnerResult.StandardOutput, executionResult.StandardOutput)
			}

			require.Len(testInstance, recordingRunner.recordedCommands, 1)
			require.Equal(testInstance, command, recordingRunner.recordedCommands[0])

			entries := observerLogs.All()
			require.Len(testInstance, entries, testCase.expectedLogCount)
			for entryIndex, expectedLevel := range testCase.expectedLevels {
				require.Equal(testInstance, expectedLevel, entries[entryIndex].Level)
			}
		})
	}
}

func TestShellExecutorHonorsCommandFailurePolicy(testInstance *testing.T) {
	recordingRunner := &recordingCommandRunner{
		executionResult: execshell.ExecutionResult{StandardOutput: "done", StandardError: "warning: deprecated option"},
	}
	shellExecutor, creationError := execshell.NewShellExecutor(zap.NewNop(), recordingRunner, execshell.ExecutorSettings{FailurePolicy: execshell.FailurePolicyStandardError})
	require.NoError(testInstance, creationError)

	tool := execshell.ToolCommand{Name: testYarnCommandNameConstant}
	executionResult, executionError := shellExecutor.Execute(context.Background(), tool.ExitCodeCommand(testWorkingDirectoryConstant, testCommandArgumentConstant))
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, "done", executionResult.StandardOutput)

	_, executionError = shellExecutor.Execute(context.Background(), tool.Command(testWorkingDirectoryConstant, testCommandArgumentConstant))
	require.IsType(testInstance, execshell.CommandFailedError{}, executionError)
}

func TestShellExecutorRejectsMissingCommandName(testInstance *testing.T) {
	recordingRunner := &recordingCommandRunner{}
	shellExecutor, creationError := execshell.NewShellExecutor(zap.NewNop(), recordingRunner, execshell.ExecutorSettings{})
	require.NoError(testInstance, creationError)

	_, executionError := shellExecutor.Execute(context.Background(), execshell.ShellCommand{})
	require.ErrorIs(testInstance, executionError, execshell.ErrCommandNameMissing)
	require.Empty(testInstance, recordingRunner.recordedCommands)
}

func TestShellExecutorAppliesCommandTimeout(testInstance *testing.T) {
	recordingRunner := &recordingCommandRunner{}
	shellExecutor, creationError := execshell.NewShellExecutor(zap.NewNop(), recordingRunner, execshell.ExecutorSettings{CommandTimeout: time.Minute})
	require.NoError(testInstance, creationError)

	_, executionError := shellExecutor.ExecuteGit(context.Background(), execshell.CommandDetails{Arguments: []string{testCommandArgumentConstant}})
	require.NoError(testInstance, executionError)
	require.Len(testInstance, recordingRunner.recordedContexts, 1)

	_, hasDeadline := recordingRunner.recordedContexts[0].Deadline()
	require.True(testInstance, hasDeadline)
	require.Equal(testInstance, execshell.CommandGit, recordingRunner.recordedCommands[0].Name)
}

func TestShellExecutorHumanReadableMessages(testInstance *testing.T) {
	observerCore, observerLogs := observer.New(zap.DebugLevel)
	recordingRunner := &recordingCommandRunner{executionResult: execshell.ExecutionResult{ExitCode: 1, StandardError: "no such script\nmore"}}
	shellExecutor, creationError := execshell.NewShellExecutor(zap.New(observerCore), recordingRunner, execshell.ExecutorSettings{HumanReadableLogging: true})
	require.NoError(testInstance, creationError)

	command := execshell.ShellCommand{
		Name:    testYarnCommandNameConstant,
		Details: execshell.CommandDetails{Arguments: []string{"run", "build:webview"}, WorkingDirectory: "extensions/demo"},
	}
	_, executionError := shellExecutor.Execute(context.Background(), command)
	require.Error(testInstance, executionError)

	messages := make([]string, 0, 2)
	for _, entry := range observerLogs.All() {
		messages = append(messages, entry.Message)
	}
	require.Equal(testInstance, []string{
		"Running yarn run build:webview (in extensions/demo)",
		"Failed yarn run build:webview (exit code 1: no such script)",
	}, messages)
}

func TestCommandFailedErrorMessages(testInstance *testing.T) {
	testCases := []struct {
		name            string
		failure         execshell.CommandFailedError
		expectedMessage string
	}{
		{
			name: "non_zero_exit",
			failure: execshell.CommandFailedError{
				Command: execshell.ShellCommand{Name: testYarnCommandNameConstant, Details: execshell.CommandDetails{Arguments: []string{"version"}}},
				Result:  execshell.ExecutionResult{ExitCode: 2, StandardError: "bad\n\nworse\nthird\nfourth"},
			},
			expectedMessage: "yarn command exited with code 2 (version): bad | worse",
		},
		{
			name: "standard_error_only",
			failure: execshell.CommandFailedError{
				Command: execshell.ShellCommand{Name: testYarnCommandNameConstant},
				Result:  execshell.ExecutionResult{StandardError: "warning"},
			},
			expectedMessage: "yarn command reported errors: warning",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedMessage, testCase.failure.Error())
		})
	}
}

func TestParseFailurePolicy(testInstance *testing.T) {
	testCases := []struct {
		raw         string
		expected    execshell.FailurePolicy
		expectError bool
	}{
		{raw: "", expected: execshell.FailurePolicyStandardError},
		{raw: " STDERR ", expected: execshell.FailurePolicyStandardError},
		{raw: "exit_code", expected: execshell.FailurePolicyExitCode},
		{raw: "exit-code", expected: execshell.FailurePolicyExitCode},
		{raw: "never", expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.raw, func(testInstance *testing.T) {
			policy, parseError := execshell.ParseFailurePolicy(testCase.raw)
			if testCase.expectError {
				require.Error(testInstance, parseError)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expected, policy)
		})
	}
}

func TestParseToolCommand(testInstance *testing.T) {
	tool, parseError := execshell.ParseToolCommand(`npx --yes "@vscode/vsce"`)
	require.NoError(testInstance, parseError)
	require.Equal(testInstance, execshell.CommandName("npx"), tool.Name)

	command := tool.Command("out/demo", "package", "--no-dependencies")
	require.Equal(testInstance, []string{"--yes", "@vscode/vsce", "package", "--no-dependencies"}, command.Details.Arguments)
	require.Equal(testInstance, "out/demo", command.Details.WorkingDirectory)

	_, emptyError := execshell.ParseToolCommand("   ")
	require.ErrorIs(testInstance, emptyError, execshell.ErrToolCommandEmpty)

	_, quoteError := execshell.ParseToolCommand(`vsce "unterminated`)
	require.Error(testInstance, quoteError)
}
