package extensions

import "fmt"

// TaskKind enumerates the tasks generated for the marketplace.
type TaskKind string

// Known task kinds.
const (
	TaskKindCleanAll         TaskKind = "clean-all"
	TaskKindBumpAll          TaskKind = "bump-all"
	TaskKindCleanExtension   TaskKind = "clean-extension"
	TaskKindBumpExtension    TaskKind = "bump-extension"
	TaskKindBundleExtension  TaskKind = "bundle-extension"
	TaskKindBundleWebview    TaskKind = "bundle-webview"
	TaskKindPublishExtension TaskKind = "publish-extension"
	TaskKindPackageExtension TaskKind = "package-extension"
)

const extensionTaskNameTemplateConstant = "%s:%s:%s"

var taskKindDescriptions = map[TaskKind]string{
	TaskKindCleanAll:         "Remove the marketplace output directory",
	TaskKindBumpAll:          "Bump the version of every marketplace extension",
	TaskKindCleanExtension:   "Remove the bundled output of %s",
	TaskKindBumpExtension:    "Bump the version of %s",
	TaskKindBundleExtension:  "Clean, bump, and bundle the resources of %s",
	TaskKindBundleWebview:    "Build and copy the webview assets of %s",
	TaskKindPublishExtension: "Bundle and publish %s to the marketplace",
	TaskKindPackageExtension: "Bundle and package %s as a VSIX archive",
}

// ExtensionTaskName returns the generated name of a per-extension task.
func ExtensionTaskName(prefix string, kind TaskKind, extensionName string) string {
	return fmt.Sprintf(extensionTaskNameTemplateConstant, prefix, kind, extensionName)
}

func (kind TaskKind) describe(extensionName string) string {
	template := taskKindDescriptions[kind]
	if len(extensionName) == 0 {
		return template
	}
	return fmt.Sprintf(template, extensionName)
}
