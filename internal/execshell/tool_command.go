package execshell

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
)

const (
	toolCommandEmptyMessageConstant       = "tool command not provided"
	toolCommandParseErrorTemplateConstant = "unable to parse tool command %q: %w"
)

// ErrToolCommandEmpty indicates a configured tool command had no words.
var ErrToolCommandEmpty = errors.New(toolCommandEmptyMessageConstant)

// ToolCommand is a configured executable plus leading arguments, such as
// "npx --yes @vscode/vsce".
type ToolCommand struct {
	Name             CommandName
	LeadingArguments []string
}

// ParseToolCommand splits a configured command line using shell quoting rules.
func ParseToolCommand(raw string) (ToolCommand, error) {
	words, splitError := shellquote.Split(strings.TrimSpace(raw))
	if splitError != nil {
		return ToolCommand{}, fmt.Errorf(toolCommandParseErrorTemplateConstant, raw, splitError)
	}
	if len(words) == 0 {
		return ToolCommand{}, ErrToolCommandEmpty
	}
	return ToolCommand{Name: CommandName(words[0]), LeadingArguments: words[1:]}, nil
}

// Command builds a ShellCommand appending the provided arguments after the leading ones.
func (tool ToolCommand) Command(workingDirectory string, arguments ...string) ShellCommand {
	combined := make([]string, 0, len(tool.LeadingArguments)+len(arguments))
	combined = append(combined, tool.LeadingArguments...)
	combined = append(combined, arguments...)
	return ShellCommand{
		Name: tool.Name,
		Details: CommandDetails{
			Arguments:        combined,
			WorkingDirectory: workingDirectory,
		},
	}
}

// ExitCodeCommand builds a ShellCommand that fails only on a non-zero exit code
// regardless of the executor's configured policy.
func (tool ToolCommand) ExitCodeCommand(workingDirectory string, arguments ...string) ShellCommand {
	command := tool.Command(workingDirectory, arguments...)
	command.FailurePolicy = FailurePolicyExitCode
	return command
}

// String renders the tool command for display.
func (tool ToolCommand) String() string {
	return RenderCommandLine(ShellCommand{Name: tool.Name, Details: CommandDetails{Arguments: tool.LeadingArguments}})
}
