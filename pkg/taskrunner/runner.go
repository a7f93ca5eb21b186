package taskrunner

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	taskStartedMessageConstant      = "Starting task"
	taskFinishedMessageConstant     = "Finished task"
	taskFailedMessageConstant       = "Task failed"
	stepStartedMessageConstant      = "Starting step"
	stepFinishedMessageConstant     = "Finished step"
	stepFailedMessageConstant       = "Step failed"
	taskLogFieldConstant            = "task"
	stepLogFieldConstant            = "step"
	durationLogFieldConstant        = "duration"
	registryMissingMessageConstant  = "task registry not configured"
	noTasksRequestedMessageConstant = "no tasks requested"
)

var (
	// ErrRegistryNotConfigured indicates the runner was constructed without a registry.
	ErrRegistryNotConfigured = errors.New(registryMissingMessageConstant)
	// ErrNoTasksRequested indicates Run was invoked without task names.
	ErrNoTasksRequested = errors.New(noTasksRequestedMessageConstant)
)

// TaskResult captures the outcome of one invoked task.
type TaskResult struct {
	Name     string
	Duration time.Duration
	Err      error
}

// RunReport aggregates the task results of one Run call.
type RunReport struct {
	Results  []TaskResult
	Duration time.Duration
}

// Succeeded counts the tasks that completed without error.
func (report RunReport) Succeeded() int {
	succeeded := 0
	for _, result := range report.Results {
		if result.Err == nil {
			succeeded++
		}
	}
	return succeeded
}

// Failed counts the tasks that returned an error.
func (report RunReport) Failed() int {
	return len(report.Results) - report.Succeeded()
}

// Runner invokes registered tasks by name.
type Runner struct {
	registry *Registry
	logger   *zap.Logger
}

// NewRunner constructs a Runner over the provided registry.
func NewRunner(registry *Registry, logger *zap.Logger) (*Runner, error) {
	if registry == nil {
		return nil, ErrRegistryNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{registry: registry, logger: logger}, nil
}

// Run validates every requested name, then runs the tasks in order and stops
// at the first failing task.
func (runner *Runner) Run(ctx context.Context, names ...string) (RunReport, error) {
	if len(names) == 0 {
		return RunReport{}, ErrNoTasksRequested
	}
	if validationError := runner.registry.Validate(names...); validationError != nil {
		return RunReport{}, validationError
	}
	if ctx == nil {
		ctx = context.Background()
	}

	runStart := time.Now()
	report := RunReport{Results: make([]TaskResult, 0, len(names))}
	for _, name := range names {
		task, _ := runner.registry.Lookup(name)
		taskLogger := runner.logger.With(zap.String(taskLogFieldConstant, task.Name()))
		taskContext := WithStepObserver(ctx, zapStepObserver{logger: taskLogger})

		taskLogger.Info(taskStartedMessageConstant)
		taskStart := time.Now()
		taskError := task.Run(taskContext)
		result := TaskResult{Name: task.Name(), Duration: time.Since(taskStart), Err: taskError}
		report.Results = append(report.Results, result)

		if taskError != nil {
			taskLogger.Error(taskFailedMessageConstant, zap.Duration(durationLogFieldConstant, result.Duration), zap.Error(taskError))
			report.Duration = time.Since(runStart)
			return report, taskError
		}
		taskLogger.Info(taskFinishedMessageConstant, zap.Duration(durationLogFieldConstant, result.Duration))
	}
	report.Duration = time.Since(runStart)
	return report, nil
}

type zapStepObserver struct {
	logger *zap.Logger
}

func (observer zapStepObserver) StepStarted(name string) {
	observer.logger.Debug(stepStartedMessageConstant, zap.String(stepLogFieldConstant, name))
}

func (observer zapStepObserver) StepFinished(name string, duration time.Duration, err error) {
	if err != nil {
		observer.logger.Warn(stepFailedMessageConstant, zap.String(stepLogFieldConstant, name), zap.Duration(durationLogFieldConstant, duration), zap.Error(err))
		return
	}
	observer.logger.Debug(stepFinishedMessageConstant, zap.String(stepLogFieldConstant, name), zap.Duration(durationLogFieldConstant, duration))
}
