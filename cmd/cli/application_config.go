package cli

import (
	_ "embed"
	"time"

	"github.com/tyemirov/vsxbuild/cmd/cli/tasks"
	"github.com/tyemirov/vsxbuild/internal/execshell"
	"github.com/tyemirov/vsxbuild/internal/extensions"
	"github.com/tyemirov/vsxbuild/internal/utils"
)

const (
	commonConfigurationKeyConstant         = "common"
	commonLogLevelConfigKeyConstant        = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant       = commonConfigurationKeyConstant + ".log_format"
	commonFailurePolicyConfigKeyConstant   = commonConfigurationKeyConstant + ".failure_policy"
	commonCommandTimeoutConfigKeyConstant  = commonConfigurationKeyConstant + ".command_timeout"
	toolsConfigurationKeyConstant          = "tools"
	toolsPackageManagerConfigKeyConstant   = toolsConfigurationKeyConstant + ".package_manager"
	toolsPackagerConfigKeyConstant         = toolsConfigurationKeyConstant + ".packager"
	marketplaceConfigurationKeyConstant    = "marketplace"
	marketplaceExtensionsConfigKeyConstant = marketplaceConfigurationKeyConstant + ".extensions_directory"
	marketplaceOutputConfigKeyConstant     = marketplaceConfigurationKeyConstant + ".output_directory"
	marketplaceTaskPrefixConfigKeyConstant = marketplaceConfigurationKeyConstant + ".task_prefix"
	marketplaceCleanTaskConfigKeyConstant  = marketplaceConfigurationKeyConstant + ".clean_task"
	marketplaceBumpTaskConfigKeyConstant   = marketplaceConfigurationKeyConstant + ".bump_task"
	marketplaceNewVersionConfigKeyConstant = marketplaceConfigurationKeyConstant + ".new_version"
	embeddedConfigurationTypeConstant      = "yaml"
)

//go:embed default_config.yaml
var embeddedDefaultConfiguration []byte

// EmbeddedDefaultConfiguration returns the configuration compiled into the binary and its format.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return append([]byte{}, embeddedDefaultConfiguration...), embeddedConfigurationTypeConstant
}

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common      ApplicationCommonConfiguration      `mapstructure:"common" yaml:"common"`
	Tools       tasks.ToolsConfiguration            `mapstructure:"tools" yaml:"tools"`
	Marketplace extensions.MarketplaceConfiguration `mapstructure:"marketplace" yaml:"marketplace"`
}

// ApplicationCommonConfiguration stores logging and subprocess defaults shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel       string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat      string        `mapstructure:"log_format" yaml:"log_format"`
	FailurePolicy  string        `mapstructure:"failure_policy" yaml:"failure_policy"`
	CommandTimeout time.Duration `mapstructure:"command_timeout" yaml:"command_timeout"`
}

func defaultConfigurationValues() map[string]any {
	marketplace := extensions.DefaultMarketplaceConfiguration()
	toolsDefaults := tasks.DefaultToolsConfiguration()
	return map[string]any{
		commonLogLevelConfigKeyConstant:        string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant:       string(utils.LogFormatStructured),
		commonFailurePolicyConfigKeyConstant:   string(execshell.FailurePolicyStandardError),
		commonCommandTimeoutConfigKeyConstant:  time.Duration(0),
		toolsPackageManagerConfigKeyConstant:   toolsDefaults.PackageManager,
		toolsPackagerConfigKeyConstant:         toolsDefaults.Packager,
		marketplaceExtensionsConfigKeyConstant: marketplace.ExtensionsDirectory,
		marketplaceOutputConfigKeyConstant:     marketplace.OutputDirectory,
		marketplaceTaskPrefixConfigKeyConstant: marketplace.TaskPrefix,
		marketplaceCleanTaskConfigKeyConstant:  marketplace.CleanTask,
		marketplaceBumpTaskConfigKeyConstant:   marketplace.BumpTask,
		marketplaceNewVersionConfigKeyConstant: "",
	}
}

func (application *Application) taskCommandConfiguration() tasks.CommandConfiguration {
	return tasks.CommandConfiguration{
		FailurePolicy:  application.configuration.Common.FailurePolicy,
		CommandTimeout: application.configuration.Common.CommandTimeout,
		Tools:          application.configuration.Tools,
		Marketplace:    application.configuration.Marketplace,
	}.Sanitize()
}
