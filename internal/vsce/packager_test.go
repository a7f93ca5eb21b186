package vsce_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tyemirov/vsxbuild/internal/execshell"
	"github.com/tyemirov/vsxbuild/internal/vsce"
)

type recordingExecutor struct {
	commands []execshell.ShellCommand
	err      error
}

func (executor *recordingExecutor) Execute(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	executor.commands = append(executor.commands, command)
	return execshell.ExecutionResult{}, executor.err
}

func writeManifest(t *testing.T, directory string) {
	t.Helper()
	content := `{"name": "gitpod-remote", "version": "0.0.42", "publisher": "gitpod"}`
	require.NoError(t, os.WriteFile(filepath.Join(directory, "package.json"), []byte(content), 0o644))
}

func TestCreateVSIXRunsPackageWithoutDependencies(t *testing.T) {
	workingDirectory := t.TempDir()
	writeManifest(t, workingDirectory)

	tool, parseError := execshell.ParseToolCommand("npx --yes @vscode/vsce")
	require.NoError(t, parseError)
	executor := &recordingExecutor{}
	core, logs := observer.New(zapcore.InfoLevel)
	packager, creationError := vsce.NewCLIPackager(tool, executor, zap.New(core))
	require.NoError(t, creationError)

	require.NoError(t, packager.CreateVSIX(context.Background(), vsce.Options{WorkingDirectory: workingDirectory}))

	require.Len(t, executor.commands, 1)
	command := executor.commands[0]
	require.Equal(t, execshell.CommandName("npx"), command.Name)
	require.Equal(t, []string{"--yes", "@vscode/vsce", "package", "--no-dependencies"}, command.Details.Arguments)
	require.Equal(t, workingDirectory, command.Details.WorkingDirectory)
	require.Equal(t, execshell.FailurePolicyExitCode, command.FailurePolicy)

	entries := logs.FilterMessage("Packaging extension").All()
	require.Len(t, entries, 1)
	require.Equal(t, "gitpod-remote-0.0.42.vsix", entries[0].ContextMap()["archive"])
}

func TestPublishForwardsPersonalAccessToken(t *testing.T) {
	testCases := []struct {
		name                string
		environment         map[string]string
		dependencies        bool
		expectedArguments   []string
		expectedEnvironment map[string]string
	}{
		{
			name:                "token present",
			environment:         map[string]string{"VSCE_PAT": "secret"},
			expectedArguments:   []string{"publish", "--no-dependencies"},
			expectedEnvironment: map[string]string{"VSCE_PAT": "secret"},
		},
		{
			name:              "token absent with dependencies",
			environment:       map[string]string{},
			dependencies:      true,
			expectedArguments: []string{"publish"},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			workingDirectory := t.TempDir()
			executor := &recordingExecutor{}
			packager, creationError := vsce.NewCLIPackager(execshell.ToolCommand{Name: "vsce"}, executor, nil)
			require.NoError(t, creationError)
			packager.WithEnvironmentLookup(func(name string) (string, bool) {
				value, exists := testCase.environment[name]
				return value, exists
			})

			publishError := packager.Publish(context.Background(), vsce.Options{WorkingDirectory: workingDirectory, Dependencies: testCase.dependencies})
			require.NoError(t, publishError)
			require.Len(t, executor.commands, 1)
			require.Equal(t, testCase.expectedArguments, executor.commands[0].Details.Arguments)
			require.Equal(t, testCase.expectedEnvironment, executor.commands[0].Details.EnvironmentVariables)
			require.Equal(t, execshell.FailurePolicyExitCode, executor.commands[0].FailurePolicy)
		})
	}
}

func TestPackagerWrapsFailures(t *testing.T) {
	failure := errors.New("vsce exited")
	executor := &recordingExecutor{err: failure}
	packager, creationError := vsce.NewCLIPackager(execshell.ToolCommand{Name: "vsce"}, executor, zap.NewNop())
	require.NoError(t, creationError)

	packageError := packager.CreateVSIX(context.Background(), vsce.Options{WorkingDirectory: "out/demo"})
	require.ErrorIs(t, packageError, failure)
	var packagingError vsce.PackagingError
	require.ErrorAs(t, packageError, &packagingError)
	require.Equal(t, "createVSIX", packagingError.Operation)
	require.EqualError(t, packageError, "createVSIX failed in out/demo: vsce exited")

	require.ErrorIs(t, packager.Publish(context.Background(), vsce.Options{}), vsce.ErrWorkingDirectoryMissing)
}

func TestNewCLIPackagerValidatesDependencies(t *testing.T) {
	_, creationError := vsce.NewCLIPackager(execshell.ToolCommand{Name: "vsce"}, nil, nil)
	require.ErrorIs(t, creationError, vsce.ErrExecutorNotConfigured)

	_, creationError = vsce.NewCLIPackager(execshell.ToolCommand{}, &recordingExecutor{}, nil)
	require.ErrorIs(t, creationError, execshell.ErrToolCommandEmpty)
}
