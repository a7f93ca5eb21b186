package taskrunner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingStepObserver struct {
	started  []string
	finished []string
	failures []string
}

func (observer *recordingStepObserver) StepStarted(name string) {
	observer.started = append(observer.started, name)
}

func (observer *recordingStepObserver) StepFinished(name string, _ time.Duration, err error) {
	observer.finished = append(observer.finished, name)
	if err != nil {
		observer.failures = append(observer.failures, name)
	}
}

func recordingTask(name string, invocations *[]string, result error) *Task {
	return Define(name, func(context.Context) error {
		*invocations = append(*invocations, name)
		return result
	})
}

func TestSeriesRunsStepsInOrder(t *testing.T) {
	var invocations []string
	series := Series(
		recordingTask("clean", &invocations, nil),
		recordingTask("bump", &invocations, nil),
		recordingTask("bundle", &invocations, nil),
	)

	require.NoError(t, series.Run(context.Background()))
	require.Equal(t, []string{"clean", "bump", "bundle"}, invocations)
	require.Equal(t, "series(clean, bump, bundle)", series.Name())
}

func TestSeriesStopsAtFirstFailure(t *testing.T) {
	failure := errors.New("boom")
	var invocations []string
	observer := &recordingStepObserver{}
	series := Series(
		recordingTask("A", &invocations, failure),
		recordingTask("B", &invocations, nil),
	)

	runError := series.Run(WithStepObserver(context.Background(), observer))
	require.Error(t, runError)
	require.ErrorIs(t, runError, failure)

	var stepError StepFailedError
	require.ErrorAs(t, runError, &stepError)
	require.Equal(t, "A", stepError.Step)
	require.Equal(t, []string{"A"}, invocations)
	require.Equal(t, []string{"A"}, observer.started)
	require.Equal(t, []string{"A"}, observer.failures)
}

func TestNestedSeriesReportsInnermostStep(t *testing.T) {
	failure := errors.New("bump failed")
	var invocations []string
	inner := Series(
		recordingTask("clean", &invocations, nil),
		recordingTask("bump", &invocations, failure),
	).Named("bundle-extension")
	outer := Series(inner, recordingTask("package", &invocations, nil))

	runError := outer.Run(context.Background())
	var stepError StepFailedError
	require.ErrorAs(t, runError, &stepError)
	require.Equal(t, "bump", stepError.Step)
	require.Equal(t, []string{"clean", "bump"}, invocations)
}

func TestSeriesHonorsCancellationBetweenSteps(t *testing.T) {
	executionContext, cancel := context.WithCancel(context.Background())
	var invocations []string
	series := Series(
		Define("first", func(context.Context) error {
			invocations = append(invocations, "first")
			cancel()
			return nil
		}),
		recordingTask("second", &invocations, nil),
	)

	runError := series.Run(executionContext)
	require.ErrorIs(t, runError, context.Canceled)
	require.Equal(t, []string{"first"}, invocations)
}

func TestNamedAndDescribeReturnIndependentCopies(t *testing.T) {
	var invocations []string
	original := Series(recordingTask("step", &invocations, nil))
	renamed := original.Named("  pipeline ").Describe(" builds things ")

	require.Equal(t, "pipeline", renamed.Name())
	require.Equal(t, "builds things", renamed.Description())
	require.Equal(t, "series(step)", original.Name())
	require.Empty(t, original.Description())
	require.Len(t, renamed.Steps(), 1)

	require.NoError(t, renamed.Run(context.Background()))
	require.Equal(t, []string{"step"}, invocations)
}

func TestDefineWithoutActionIsNoOp(t *testing.T) {
	require.NoError(t, Define("noop", nil).Run(context.Background()))
	var nilTask *Task
	require.NoError(t, nilTask.Run(context.Background()))
	require.Equal(t, "<anonymous>", nilTask.Name())
}

func TestPlanListsSeriesSteps(t *testing.T) {
	var invocations []string
	bundle := Series(
		recordingTask("clean", &invocations, nil),
		recordingTask("bump", &invocations, nil),
	).Named("bundle")
	pipeline := Series(bundle, recordingTask("package", &invocations, nil)).Named("package-extension").Describe("Package it")

	plan := pipeline.Plan()
	require.Equal(t, PlanNode{
		Name:        "package-extension",
		Description: "Package it",
		Steps: []PlanNode{
			{Name: "bundle", Steps: []PlanNode{{Name: "clean"}, {Name: "bump"}}},
			{Name: "package"},
		},
	}, plan)
	require.Empty(t, invocations)
}
