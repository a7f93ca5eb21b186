package tasks

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	listCommandUseName          = "tasks"
	listCommandShortDescription = "List the registered marketplace tasks"
	listCommandAlias            = "ls"
	planCommandUseName          = "plan <task>"
	planCommandShortDescription = "Print the step tree of a task as YAML"
	planEncodeErrorTemplate     = "unable to render plan for %s: %w"
	listWriterMinimumWidth      = 0
	listWriterTabWidth          = 4
	listWriterPadding           = 2
	listWriterPaddingCharacter  = ' '
	planYAMLIndentation         = 2
)

// BuildListCommand constructs the tasks command.
func (builder *CommandBuilder) BuildListCommand() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     listCommandUseName,
		Short:   listCommandShortDescription,
		Aliases: []string{listCommandAlias},
		Args:    cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			registry, registryError := builder.BuildRegistry(command)
			if registryError != nil {
				return registryError
			}

			writer := tabwriter.NewWriter(command.OutOrStdout(), listWriterMinimumWidth, listWriterTabWidth, listWriterPadding, listWriterPaddingCharacter, 0)
			for _, name := range registry.Names() {
				task, _ := registry.Lookup(name)
				fmt.Fprintf(writer, "%s\t%s\n", task.Name(), task.Description())
			}
			return writer.Flush()
		},
	}
	return command, nil
}

// BuildPlanCommand constructs the plan command.
func (builder *CommandBuilder) BuildPlanCommand() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:               planCommandUseName,
		Short:             planCommandShortDescription,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: builder.completeTaskNames,
		RunE: func(command *cobra.Command, arguments []string) error {
			registry, registryError := builder.BuildRegistry(command)
			if registryError != nil {
				return registryError
			}

			task, lookupError := registry.Lookup(arguments[0])
			if lookupError != nil {
				return lookupError
			}

			encoder := yaml.NewEncoder(command.OutOrStdout())
			encoder.SetIndent(planYAMLIndentation)
			if encodeError := encoder.Encode(task.Plan()); encodeError != nil {
				return fmt.Errorf(planEncodeErrorTemplate, task.Name(), encodeError)
			}
			return encoder.Close()
		},
	}
	return command, nil
}
