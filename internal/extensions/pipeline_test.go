package extensions

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/vsxbuild/internal/execshell"
	"github.com/tyemirov/vsxbuild/internal/vsce"
	"github.com/tyemirov/vsxbuild/pkg/taskrunner"
)

func gitpodMarketplaceConfiguration(extensionsDirectory string, outputDirectory string) MarketplaceConfiguration {
	configuration := DefaultMarketplaceConfiguration()
	configuration.ExtensionsDirectory = extensionsDirectory
	configuration.OutputDirectory = outputDirectory
	configuration.Extensions = []ExtensionConfiguration{
		{
			Name:    "gitpod-remote",
			Webview: WebviewConfiguration{Enabled: true, Task: "bundle-remote-ports-webview"},
		},
	}
	return configuration
}

func TestBuildRegistryGeneratesMarketplaceTasks(t *testing.T) {
	registry, registryError := BuildRegistry(PipelineDependencies{
		Configuration:  gitpodMarketplaceConfiguration("extensions", "out-gitpod-marketplace"),
		PackageManager: yarnTool(),
		Executor:       newTestExecutor(t, &recordingCommandRunner{}),
		Packager:       &recordingPackager{},
	})
	require.NoError(t, registryError)

	require.Equal(t, []string{
		"bump-marketplace-extensions",
		"bundle-remote-ports-webview",
		"clean-gitpod-marketplace-extensions",
		"gitpod:bump-extension:gitpod-remote",
		"gitpod:bundle-extension:gitpod-remote",
		"gitpod:clean-extension:gitpod-remote",
		"gitpod:package-extension:gitpod-remote",
		"gitpod:publish-extension:gitpod-remote",
	}, registry.Names())

	packageTask, lookupError := registry.Lookup("gitpod:package-extension:gitpod-remote")
	require.NoError(t, lookupError)
	require.Equal(t, taskrunner.PlanNode{
		Name:        "gitpod:package-extension:gitpod-remote",
		Description: "Bundle and package gitpod-remote as a VSIX archive",
		Steps: []taskrunner.PlanNode{
			{
				Name:        "gitpod:bundle-extension:gitpod-remote",
				Description: "Clean, bump, and bundle the resources of gitpod-remote",
				Steps: []taskrunner.PlanNode{
					{Name: "gitpod:clean-extension:gitpod-remote", Description: "Remove the bundled output of gitpod-remote"},
					{Name: "gitpod:bump-extension:gitpod-remote", Description: "Bump the version of gitpod-remote"},
					{Name: "bundle-resources"},
				},
			},
			{Name: "bundle-remote-ports-webview", Description: "Build and copy the webview assets of gitpod-remote"},
			{Name: "vsce-package"},
		},
	}, packageTask.Plan())
}

func TestBuildRegistryRejectsCollidingTaskNames(t *testing.T) {
	configuration := gitpodMarketplaceConfiguration("extensions", "out")
	configuration.Extensions[0].Webview.Task = "clean-gitpod-marketplace-extensions"

	_, registryError := BuildRegistry(PipelineDependencies{
		Configuration:  configuration,
		PackageManager: yarnTool(),
		Executor:       newTestExecutor(t, &recordingCommandRunner{}),
		Packager:       &recordingPackager{},
	})
	require.ErrorIs(t, registryError, taskrunner.DuplicateTaskError{Name: "clean-gitpod-marketplace-extensions"})
}

func TestBuildRegistryValidatesDependencies(t *testing.T) {
	configuration := gitpodMarketplaceConfiguration("extensions", "out")

	_, registryError := BuildRegistry(PipelineDependencies{Configuration: configuration, Executor: newTestExecutor(t, &recordingCommandRunner{})})
	require.ErrorIs(t, registryError, ErrPackagerNotConfigured)

	_, registryError = BuildRegistry(PipelineDependencies{Configuration: configuration, Packager: &recordingPackager{}})
	require.ErrorIs(t, registryError, ErrExecutorNotConfigured)

	configuration.Extensions = append(configuration.Extensions, ExtensionConfiguration{Name: "gitpod-remote"})
	_, registryError = BuildRegistry(PipelineDependencies{Configuration: configuration, Executor: newTestExecutor(t, &recordingCommandRunner{}), Packager: &recordingPackager{}})
	require.ErrorContains(t, registryError, `extension "gitpod-remote" configured more than once`)
}

func TestPackageExtensionWithoutVersion(t *testing.T) {
	extensionsDirectory := t.TempDir()
	outputDirectory := filepath.Join(t.TempDir(), "out-gitpod-marketplace")
	sourceDirectory := filepath.Join(extensionsDirectory, "gitpod-remote")
	writeTestFile(t, filepath.Join(sourceDirectory, "package.json"), "{\n  \"name\": \"gitpod-remote\",\n  \"version\": \"0.0.1\"\n}")
	writeTestFile(t, filepath.Join(sourceDirectory, "out", "extension.js"), "exports.activate = () => {};")
	writeTestFile(t, filepath.Join(sourceDirectory, "src", "extension.ts"), "export {}")
	writeTestFile(t, filepath.Join(sourceDirectory, "public", "index.html"), "<html></html>")
	writeTestFile(t, filepath.Join(sourceDirectory, ".vscodeignore"), "src/**\n")
	writeTestFile(t, filepath.Join(outputDirectory, "gitpod-remote", "stale.txt"), "stale")

	runner := &recordingCommandRunner{}
	packager := &recordingPackager{}
	registry, registryError := BuildRegistry(PipelineDependencies{
		Configuration:  gitpodMarketplaceConfiguration(extensionsDirectory, outputDirectory),
		PackageManager: yarnTool(),
		Executor:       newTestExecutor(t, runner),
		Packager:       packager,
	})
	require.NoError(t, registryError)
	runnerInstance, runnerError := taskrunner.NewRunner(registry, nil)
	require.NoError(t, runnerError)

	_, runError := runnerInstance.Run(context.Background(), "gitpod:package-extension:gitpod-remote")
	require.NoError(t, runError)

	extensionOutput := filepath.Join(outputDirectory, "gitpod-remote")
	require.NoFileExists(t, filepath.Join(extensionOutput, "stale.txt"))
	require.Equal(t, `{"name":"gitpod-remote","version":"0.0.1"}`, readTestFile(t, filepath.Join(extensionOutput, "package.json")))
	require.Equal(t, "exports.activate = () => {};", readTestFile(t, filepath.Join(extensionOutput, "out", "extension.js")))
	require.Equal(t, "<html></html>", readTestFile(t, filepath.Join(extensionOutput, "public", "index.html")))
	require.NoFileExists(t, filepath.Join(extensionOutput, "src", "extension.ts"))

	for _, command := range runner.recorded() {
		require.NotContains(t, command.Details.Arguments, "version")
	}
	require.Equal(t, [][]string{{"--cwd", sourceDirectory, "run", "build:webview"}}, argumentsOf(runner.recorded()))

	require.Equal(t, []vsce.Options{{WorkingDirectory: extensionOutput, Dependencies: false}}, packager.createCalls)
	require.Empty(t, packager.publishCalls)
}

func TestBumpMarketplaceTaskFailsAfterAllExtensionsSettle(t *testing.T) {
	configuration := DefaultMarketplaceConfiguration()
	configuration.Extensions = []ExtensionConfiguration{{Name: "first"}, {Name: "second"}}
	runner := &recordingCommandRunner{
		respond: func(command execshell.ShellCommand) execshell.ExecutionResult {
			if command.Details.Arguments[4] == filepath.Join("extensions", "first") {
				return execshell.ExecutionResult{StandardError: "boom"}
			}
			return execshell.ExecutionResult{}
		},
	}
	registry, registryError := BuildRegistry(PipelineDependencies{
		Configuration:  configuration,
		PackageManager: yarnTool(),
		Executor:       newTestExecutor(t, runner),
		Packager:       &recordingPackager{},
		Version:        "1.0.0",
	})
	require.NoError(t, registryError)

	bumpTask, lookupError := registry.Lookup("bump-marketplace-extensions")
	require.NoError(t, lookupError)
	runError := bumpTask.Run(context.Background())
	require.ErrorContains(t, runError, "first: failed to bump up version: boom")
	require.Len(t, runner.recorded(), 2)
}
