package taskrunner

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

const (
	unitPanickedErrorTemplateConstant = "%s panicked: %v"
	unitFailedErrorTemplateConstant   = "%s: %w"
)

// Unit is one independently settled piece of work.
type Unit struct {
	Name   string
	Action Action
}

// Outcome records how a unit settled. A nil Err means the unit was fulfilled.
type Outcome struct {
	Name string
	Err  error
}

// Outcomes is the ordered collection of settled units.
type Outcomes []Outcome

// Fulfilled returns the outcomes without an error.
func (outcomes Outcomes) Fulfilled() Outcomes {
	fulfilled := Outcomes{}
	for _, outcome := range outcomes {
		if outcome.Err == nil {
			fulfilled = append(fulfilled, outcome)
		}
	}
	return fulfilled
}

// Rejected returns the outcomes carrying an error.
func (outcomes Outcomes) Rejected() Outcomes {
	rejected := Outcomes{}
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			rejected = append(rejected, outcome)
		}
	}
	return rejected
}

// Err joins the errors of rejected outcomes, each prefixed with its unit name.
func (outcomes Outcomes) Err() error {
	var rejectedErrors []error
	for _, outcome := range outcomes.Rejected() {
		rejectedErrors = append(rejectedErrors, fmt.Errorf(unitFailedErrorTemplateConstant, outcome.Name, outcome.Err))
	}
	return errors.Join(rejectedErrors...)
}

// Settle runs every unit concurrently and waits for all of them. A failing or
// panicking unit never cancels its siblings. Outcomes follow input order.
func Settle(ctx context.Context, units ...Unit) Outcomes {
	if ctx == nil {
		ctx = context.Background()
	}
	outcomes := make(Outcomes, len(units))
	var group errgroup.Group
	for unitIndex := range units {
		unit := units[unitIndex]
		group.Go(func() error {
			outcomes[unitIndex] = Outcome{Name: unit.Name, Err: settleUnit(ctx, unit)}
			return nil
		})
	}
	_ = group.Wait()
	return outcomes
}

func settleUnit(ctx context.Context, unit Unit) (unitError error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			unitError = fmt.Errorf(unitPanickedErrorTemplateConstant, unit.Name, recovered)
		}
	}()
	if unit.Action == nil {
		return nil
	}
	return unit.Action(ctx)
}
