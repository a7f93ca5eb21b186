package taskrunner

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	taskNameMissingMessageConstant     = "task name not provided"
	duplicateTaskErrorTemplateConstant = "task %q registered more than once"
	unknownTaskErrorTemplateConstant   = "unknown task %q"
)

// ErrTaskNameMissing indicates a task was registered without a name.
var ErrTaskNameMissing = errors.New(taskNameMissingMessageConstant)

// DuplicateTaskError indicates two registered tasks share a name.
type DuplicateTaskError struct {
	Name string
}

// Error implements the error interface.
func (duplicateError DuplicateTaskError) Error() string {
	return fmt.Sprintf(duplicateTaskErrorTemplateConstant, duplicateError.Name)
}

// UnknownTaskError indicates a lookup for a name that is not registered.
type UnknownTaskError struct {
	Name string
}

// Error implements the error interface.
func (unknownError UnknownTaskError) Error() string {
	return fmt.Sprintf(unknownTaskErrorTemplateConstant, unknownError.Name)
}

// Registry is the registration table of invocable tasks.
type Registry struct {
	tasks map[string]*Task
	order []string
}

// NewRegistry validates and indexes the provided tasks. Every task must carry a
// unique explicit name.
func NewRegistry(tasks ...*Task) (*Registry, error) {
	registry := &Registry{
		tasks: make(map[string]*Task, len(tasks)),
		order: make([]string, 0, len(tasks)),
	}
	for _, task := range tasks {
		if task == nil || len(task.name) == 0 {
			return nil, ErrTaskNameMissing
		}
		if _, exists := registry.tasks[task.name]; exists {
			return nil, DuplicateTaskError{Name: task.name}
		}
		registry.tasks[task.name] = task
		registry.order = append(registry.order, task.name)
	}
	return registry, nil
}

// Lookup returns the task registered under name.
func (registry *Registry) Lookup(name string) (*Task, error) {
	normalizedName := strings.TrimSpace(name)
	if registry == nil {
		return nil, UnknownTaskError{Name: normalizedName}
	}
	task, exists := registry.tasks[normalizedName]
	if !exists {
		return nil, UnknownTaskError{Name: normalizedName}
	}
	return task, nil
}

// Validate reports every requested name that is not registered.
func (registry *Registry) Validate(names ...string) error {
	var validationErrors []error
	for _, name := range names {
		if _, lookupError := registry.Lookup(name); lookupError != nil {
			validationErrors = append(validationErrors, lookupError)
		}
	}
	return errors.Join(validationErrors...)
}

// Names returns the registered task names in lexical order.
func (registry *Registry) Names() []string {
	if registry == nil {
		return nil
	}
	names := append([]string{}, registry.order...)
	sort.Strings(names)
	return names
}

// Tasks returns the registered tasks in registration order.
func (registry *Registry) Tasks() []*Task {
	if registry == nil {
		return nil
	}
	tasks := make([]*Task, 0, len(registry.order))
	for _, name := range registry.order {
		tasks = append(tasks, registry.tasks[name])
	}
	return tasks
}
