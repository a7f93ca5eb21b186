package version

import (
	"context"
	"errors"
	"os"
	"runtime/debug"
	"strings"

	"go.uber.org/zap"

	"github.com/tyemirov/vsxbuild/internal/execshell"
)

const (
	unknownVersionFallbackConstant            = "unknown"
	buildInfoDevelVersionValue                = "devel"
	gitRevParseSubcommandConstant             = "rev-parse"
	gitShowTopLevelFlagConstant               = "--show-toplevel"
	gitDescribeSubcommandConstant             = "describe"
	gitTagsFlagConstant                       = "--tags"
	gitExactMatchFlagConstant                 = "--exact-match"
	gitLongFlagConstant                       = "--long"
	gitDirtyFlagConstant                      = "--dirty"
	gitTerminalPromptEnvironmentNameConstant  = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptEnvironmentValueConstant = "0"
	gitExecutorMissingMessageConstant         = "git executor not configured"
)

// Injected is set at link time with -ldflags "-X github.com/tyemirov/vsxbuild/internal/version.Injected=v1.2.3".
var Injected string

// ErrGitExecutorNotConfigured indicates the detector has no way to run git.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// BuildInfoProvider exposes runtime build metadata.
type BuildInfoProvider interface {
	Read() (*debug.BuildInfo, bool)
}

// GitExecutor runs git commands.
type GitExecutor interface {
	ExecuteGit(ctx context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Dependencies describes the collaborators required for version detection.
type Dependencies struct {
	InjectedVersion   string
	BuildInfoProvider BuildInfoProvider
	GitExecutor       GitExecutor
	WorkingDirectory  string
}

// Detector resolves the vsxbuild version from, in order, the link-time value,
// module build info, and git tags of the source checkout.
type Detector struct {
	injectedVersion   string
	buildInfoProvider BuildInfoProvider
	gitExecutor       GitExecutor
	workingDirectory  string
}

// NewDetector constructs a Detector, filling missing collaborators with runtime defaults.
func NewDetector(dependencies Dependencies) (*Detector, error) {
	provider := dependencies.BuildInfoProvider
	if provider == nil {
		provider = runtimeBuildInfoProvider{}
	}

	executor := dependencies.GitExecutor
	if executor == nil {
		shellExecutor, creationError := execshell.NewShellExecutor(zap.NewNop(), execshell.NewOSCommandRunner(), execshell.ExecutorSettings{FailurePolicy: execshell.FailurePolicyExitCode})
		if creationError != nil {
			return nil, creationError
		}
		executor = shellExecutor
	}

	workingDirectory := strings.TrimSpace(dependencies.WorkingDirectory)
	if len(workingDirectory) == 0 {
		if currentDirectory, workingDirectoryError := os.Getwd(); workingDirectoryError == nil {
			workingDirectory = currentDirectory
		}
	}

	injectedVersion := strings.TrimSpace(dependencies.InjectedVersion)
	if len(injectedVersion) == 0 {
		injectedVersion = strings.TrimSpace(Injected)
	}

	return &Detector{
		injectedVersion:   injectedVersion,
		buildInfoProvider: provider,
		gitExecutor:       executor,
		workingDirectory:  workingDirectory,
	}, nil
}

// Detect resolves the version with a detector built from the dependencies.
func Detect(ctx context.Context, dependencies Dependencies) string {
	detector, detectorError := NewDetector(dependencies)
	if detectorError != nil {
		return unknownVersionFallbackConstant
	}
	return detector.Version(ctx)
}

// Version returns the detected version string or "unknown".
func (detector *Detector) Version(ctx context.Context) string {
	if detector == nil {
		return unknownVersionFallbackConstant
	}
	if len(detector.injectedVersion) > 0 {
		return detector.injectedVersion
	}
	if buildVersion := detector.versionFromBuildInfo(); len(buildVersion) > 0 {
		return buildVersion
	}

	repositoryRoot := detector.resolveRepositoryRoot(ctx)
	describeVariants := [][]string{
		{gitDescribeSubcommandConstant, gitTagsFlagConstant, gitExactMatchFlagConstant},
		{gitDescribeSubcommandConstant, gitTagsFlagConstant, gitLongFlagConstant, gitDirtyFlagConstant},
	}
	for _, arguments := range describeVariants {
		if described := detector.gitOutput(ctx, repositoryRoot, arguments...); len(described) > 0 {
			return described
		}
	}
	return unknownVersionFallbackConstant
}

func (detector *Detector) versionFromBuildInfo() string {
	buildInfo, available := detector.buildInfoProvider.Read()
	if !available || buildInfo == nil {
		return ""
	}
	trimmedVersion := strings.TrimSpace(buildInfo.Main.Version)
	if strings.EqualFold(trimmedVersion, buildInfoDevelVersionValue) || strings.EqualFold(trimmedVersion, "("+buildInfoDevelVersionValue+")") {
		return ""
	}
	return trimmedVersion
}

func (detector *Detector) resolveRepositoryRoot(ctx context.Context) string {
	if len(detector.workingDirectory) == 0 {
		return ""
	}
	if topLevel := detector.gitOutput(ctx, detector.workingDirectory, gitRevParseSubcommandConstant, gitShowTopLevelFlagConstant); len(topLevel) > 0 {
		return topLevel
	}
	return detector.workingDirectory
}

func (detector *Detector) gitOutput(ctx context.Context, workingDirectory string, arguments ...string) string {
	if detector.gitExecutor == nil {
		return ""
	}
	executionResult, executionError := detector.gitExecutor.ExecuteGit(ctx, execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     workingDirectory,
		EnvironmentVariables: map[string]string{gitTerminalPromptEnvironmentNameConstant: gitTerminalPromptEnvironmentValueConstant},
	})
	if executionError != nil {
		return ""
	}
	return strings.TrimSpace(executionResult.StandardOutput)
}

type runtimeBuildInfoProvider struct{}

func (runtimeBuildInfoProvider) Read() (*debug.BuildInfo, bool) {
	return debug.ReadBuildInfo()
}
