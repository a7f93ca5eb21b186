package taskrunner

import (
	"context"
	"time"
)

type stepObserverContextKey struct{}

// StepObserver receives lifecycle notifications for series steps.
type StepObserver interface {
	StepStarted(name string)
	StepFinished(name string, duration time.Duration, err error)
}

// WithStepObserver attaches an observer notified about every series step run under ctx.
func WithStepObserver(ctx context.Context, observer StepObserver) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if observer == nil {
		return ctx
	}
	return context.WithValue(ctx, stepObserverContextKey{}, observer)
}

func stepObserverFromContext(ctx context.Context) StepObserver {
	if ctx == nil {
		return nil
	}
	observer, _ := ctx.Value(stepObserverContextKey{}).(StepObserver)
	return observer
}
