package extensions

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tyemirov/vsxbuild/internal/execshell"
	"github.com/tyemirov/vsxbuild/internal/vsce"
)

type recordingCommandRunner struct {
	mutex    sync.Mutex
	commands []execshell.ShellCommand
	respond  func(command execshell.ShellCommand) execshell.ExecutionResult
}

func (runner *recordingCommandRunner) Run(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.mutex.Lock()
	runner.commands = append(runner.commands, command)
	runner.mutex.Unlock()
	if runner.respond == nil {
		return execshell.ExecutionResult{}, nil
	}
	return runner.respond(command), nil
}

func (runner *recordingCommandRunner) recorded() []execshell.ShellCommand {
	runner.mutex.Lock()
	defer runner.mutex.Unlock()
	return append([]execshell.ShellCommand{}, runner.commands...)
}

type recordingPackager struct {
	createCalls  []vsce.Options
	publishCalls []vsce.Options
}

func (packager *recordingPackager) CreateVSIX(_ context.Context, options vsce.Options) error {
	packager.createCalls = append(packager.createCalls, options)
	return nil
}

func (packager *recordingPackager) Publish(_ context.Context, options vsce.Options) error {
	packager.publishCalls = append(packager.publishCalls, options)
	return nil
}

func newTestExecutor(t *testing.T, runner execshell.CommandRunner) *execshell.ShellExecutor {
	t.Helper()
	executor, creationError := execshell.NewShellExecutor(zap.NewNop(), runner, execshell.ExecutorSettings{})
	require.NoError(t, creationError)
	return executor
}

func yarnTool() execshell.ToolCommand {
	return execshell.ToolCommand{Name: "yarn"}
}

func writeTestFile(t *testing.T, filePath string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
	require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
}

func readTestFile(t *testing.T, filePath string) string {
	t.Helper()
	content, readError := os.ReadFile(filePath)
	require.NoError(t, readError)
	return string(content)
}

func argumentsOf(commands []execshell.ShellCommand) [][]string {
	arguments := make([][]string, 0, len(commands))
	for _, command := range commands {
		arguments = append(arguments, command.Details.Arguments)
	}
	return arguments
}
