package taskrunner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	seriesNameTemplateConstant      = "series(%s)"
	seriesNameSeparatorConstant     = ", "
	anonymousTaskNameConstant       = "<anonymous>"
	stepFailedErrorTemplateConstant = "step %q failed: %v"
)

// Action is the unit of work performed by a task.
type Action func(ctx context.Context) error

// Task is a named action. Series tasks additionally record their ordered steps.
type Task struct {
	name        string
	description string
	action      Action
	steps       []*Task
}

// StepFailedError reports the first failing step of a series.
type StepFailedError struct {
	Step  string
	Cause error
}

// Error describes the failing step.
func (stepError StepFailedError) Error() string {
	return fmt.Sprintf(stepFailedErrorTemplateConstant, stepError.Step, stepError.Cause)
}

// Unwrap exposes the step's error.
func (stepError StepFailedError) Unwrap() error {
	return stepError.Cause
}

// Define wraps an action under the provided name. A nil action does nothing.
func Define(name string, action Action) *Task {
	return &Task{name: strings.TrimSpace(name), action: action}
}

// Series composes tasks into one task that runs each step to completion before
// starting the next and stops at the first failure.
func Series(tasks ...*Task) *Task {
	steps := make([]*Task, 0, len(tasks))
	stepNames := make([]string, 0, len(tasks))
	for _, step := range tasks {
		if step == nil {
			continue
		}
		steps = append(steps, step)
		stepNames = append(stepNames, step.Name())
	}
	series := &Task{
		name:  fmt.Sprintf(seriesNameTemplateConstant, strings.Join(stepNames, seriesNameSeparatorConstant)),
		steps: steps,
	}
	series.action = series.runSteps
	return series
}

// Named returns a copy of the task registered under a different name.
func (task *Task) Named(name string) *Task {
	renamed := task.clone()
	renamed.name = strings.TrimSpace(name)
	return renamed
}

// Describe returns a copy of the task carrying a human-readable description.
func (task *Task) Describe(description string) *Task {
	described := task.clone()
	described.description = strings.TrimSpace(description)
	return described
}

// Name returns the task name.
func (task *Task) Name() string {
	if task == nil || len(task.name) == 0 {
		return anonymousTaskNameConstant
	}
	return task.name
}

// Description returns the task description.
func (task *Task) Description() string {
	if task == nil {
		return ""
	}
	return task.description
}

// Steps returns the ordered steps of a series task.
func (task *Task) Steps() []*Task {
	if task == nil {
		return nil
	}
	return append([]*Task{}, task.steps...)
}

// Run executes the task action.
func (task *Task) Run(ctx context.Context) error {
	if task == nil || task.action == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return task.action(ctx)
}

func (task *Task) runSteps(ctx context.Context) error {
	observer := stepObserverFromContext(ctx)
	for _, step := range task.steps {
		if contextError := ctx.Err(); contextError != nil {
			return contextError
		}

		startTime := time.Now()
		if observer != nil {
			observer.StepStarted(step.Name())
		}
		stepError := step.Run(ctx)
		if observer != nil {
			observer.StepFinished(step.Name(), time.Since(startTime), stepError)
		}
		if stepError == nil {
			continue
		}

		var nestedFailure StepFailedError
		if errors.As(stepError, &nestedFailure) {
			return stepError
		}
		return StepFailedError{Step: step.Name(), Cause: stepError}
	}
	return nil
}

// clone rebinds series actions to the copy's own steps.
func (task *Task) clone() *Task {
	if task == nil {
		return &Task{}
	}
	copied := &Task{
		name:        task.name,
		description: task.description,
		steps:       append([]*Task{}, task.steps...),
	}
	if len(task.steps) > 0 {
		copied.action = copied.runSteps
	} else {
		copied.action = task.action
	}
	return copied
}
