// Package flags provides helpers for binding standardized flags to Cobra commands.
package flags

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/tyemirov/vsxbuild/internal/utils"
)

const (
	// NewVersionFlagName exposes the shared version bump flag name.
	NewVersionFlagName = "new-version"
	// NewVersionFlagUsage describes the shared version bump flag purpose.
	NewVersionFlagUsage = "Version written to each extension manifest by bump tasks (bump tasks are skipped when empty)"
)

// ReleaseFlagValues stores release flag values.
type ReleaseFlagValues struct {
	NewVersion string
}

// BindReleaseFlags attaches the persistent --new-version flag to the provided command.
func BindReleaseFlags(command *cobra.Command, defaults ReleaseFlagValues) *ReleaseFlagValues {
	values := defaults
	if command == nil {
		return &values
	}
	persistentFlagSet := command.PersistentFlags()
	if persistentFlagSet.Lookup(NewVersionFlagName) == nil {
		persistentFlagSet.StringVar(&values.NewVersion, NewVersionFlagName, defaults.NewVersion, NewVersionFlagUsage)
	}
	return &values
}

// ResolveReleaseContext returns release details from the command context, falling back to flag values.
func ResolveReleaseContext(command *cobra.Command) (utils.ReleaseContext, bool) {
	contextAccessor := utils.NewCommandContextAccessor()
	if command != nil {
		if release, available := contextAccessor.ReleaseContext(command.Context()); available {
			return release, true
		}
	}

	newVersion, changed, flagError := StringFlag(command, NewVersionFlagName)
	if flagError != nil || !changed {
		return utils.ReleaseContext{}, false
	}
	trimmedVersion := strings.TrimSpace(newVersion)
	if len(trimmedVersion) == 0 {
		return utils.ReleaseContext{}, false
	}
	return utils.ReleaseContext{NewVersion: trimmedVersion}, true
}
