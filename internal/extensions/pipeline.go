package extensions

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/tyemirov/vsxbuild/internal/execshell"
	"github.com/tyemirov/vsxbuild/internal/vsce"
	"github.com/tyemirov/vsxbuild/pkg/taskrunner"
)

const (
	bundleResourcesStepNameConstant = "bundle-resources"
	vscePackageStepNameConstant     = "vsce-package"
	vscePublishStepNameConstant     = "vsce-publish"
	packagerMissingMessageConstant  = "extension packager not configured"
)

// ErrPackagerNotConfigured indicates the pipeline was built without a packager.
var ErrPackagerNotConfigured = errors.New(packagerMissingMessageConstant)

// PipelineDependencies supplies the collaborators of the marketplace task graph.
type PipelineDependencies struct {
	Configuration  MarketplaceConfiguration
	PackageManager execshell.ToolCommand
	Executor       CommandExecutor
	Packager       vsce.Packager
	Logger         *zap.Logger
	Version        string
}

// BuildRegistry generates and validates every marketplace task.
func BuildRegistry(dependencies PipelineDependencies) (*taskrunner.Registry, error) {
	tasks, buildError := BuildTasks(dependencies)
	if buildError != nil {
		return nil, buildError
	}
	return taskrunner.NewRegistry(tasks...)
}

// BuildTasks generates the global tasks followed by the per-extension tasks in
// configuration order.
func BuildTasks(dependencies PipelineDependencies) ([]*taskrunner.Task, error) {
	configuration := dependencies.Configuration.Sanitize()
	if validationError := configuration.Validate(); validationError != nil {
		return nil, validationError
	}
	if dependencies.Packager == nil {
		return nil, ErrPackagerNotConfigured
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	layout := NewLayout(configuration)
	bumper, bumperError := NewVersionBumper(dependencies.PackageManager, dependencies.Executor, layout, logger)
	if bumperError != nil {
		return nil, bumperError
	}
	webviewBundler, webviewError := NewWebviewBundler(dependencies.PackageManager, dependencies.Executor, layout, logger)
	if webviewError != nil {
		return nil, webviewError
	}
	resourceBundler := NewResourceBundler(layout, logger)
	version := dependencies.Version
	extensionNames := configuration.ExtensionNames()

	tasks := []*taskrunner.Task{
		taskrunner.Define(configuration.CleanTask, func(context.Context) error {
			return RemoveDirectory(layout.OutputDirectory, logger)
		}).Describe(TaskKindCleanAll.describe("")),
		taskrunner.Define(configuration.BumpTask, func(ctx context.Context) error {
			outcomes := bumper.BumpAll(ctx, extensionNames, version)
			bumper.LogOutcomes(outcomes)
			return outcomes.Err()
		}).Describe(TaskKindBumpAll.describe("")),
	}

	for _, extension := range configuration.Extensions {
		tasks = append(tasks, extensionTasks(configuration.TaskPrefix, extension, layout, version, bumper, webviewBundler, resourceBundler, dependencies.Packager, logger)...)
	}
	return tasks, nil
}

func extensionTasks(
	prefix string,
	extension ExtensionConfiguration,
	layout Layout,
	version string,
	bumper *VersionBumper,
	webviewBundler *WebviewBundler,
	resourceBundler *ResourceBundler,
	packager vsce.Packager,
	logger *zap.Logger,
) []*taskrunner.Task {
	name := extension.Name
	taskName := func(kind TaskKind) string {
		return ExtensionTaskName(prefix, kind, name)
	}

	cleanExtension := taskrunner.Define(taskName(TaskKindCleanExtension), func(context.Context) error {
		return RemoveDirectory(layout.OutputDirectoryFor(name), logger)
	}).Describe(TaskKindCleanExtension.describe(name))

	bumpExtension := taskrunner.Define(taskName(TaskKindBumpExtension), func(ctx context.Context) error {
		return bumper.Bump(ctx, name, version)
	}).Describe(TaskKindBumpExtension.describe(name))

	bundleResources := taskrunner.Define(bundleResourcesStepNameConstant, func(ctx context.Context) error {
		return resourceBundler.Bundle(ctx, extension)
	})

	bundleExtension := taskrunner.Series(cleanExtension, bumpExtension, bundleResources).
		Named(taskName(TaskKindBundleExtension)).
		Describe(TaskKindBundleExtension.describe(name))

	tasks := []*taskrunner.Task{cleanExtension, bumpExtension, bundleExtension}

	var bundleWebview *taskrunner.Task
	if extension.Webview.Enabled {
		webviewTaskName := extension.Webview.Task
		if len(webviewTaskName) == 0 {
			webviewTaskName = taskName(TaskKindBundleWebview)
		}
		bundleWebview = taskrunner.Define(webviewTaskName, func(ctx context.Context) error {
			return webviewBundler.Bundle(ctx, extension)
		}).Describe(TaskKindBundleWebview.describe(name))
		tasks = append(tasks, bundleWebview)
	}

	packagingOptions := vsce.Options{WorkingDirectory: layout.OutputDirectoryFor(name), Dependencies: false}
	publish := taskrunner.Define(vscePublishStepNameConstant, func(ctx context.Context) error {
		return packager.Publish(ctx, packagingOptions)
	})
	createVSIX := taskrunner.Define(vscePackageStepNameConstant, func(ctx context.Context) error {
		return packager.CreateVSIX(ctx, packagingOptions)
	})

	publishExtension := taskrunner.Series(bundleExtension, bundleWebview, publish).
		Named(taskName(TaskKindPublishExtension)).
		Describe(TaskKindPublishExtension.describe(name))
	packageExtension := taskrunner.Series(bundleExtension, bundleWebview, createVSIX).
		Named(taskName(TaskKindPackageExtension)).
		Describe(TaskKindPackageExtension.describe(name))

	return append(tasks, publishExtension, packageExtension)
}
