package core

import "errors"

// Outcome is the result of processing one entity: either the artifact paths
// the step produced or the error that stopped it.
type Outcome struct {
	Entity    string
	Artifacts []string
	Err       error
}

// Succeeded returns a successful outcome.
func Succeeded(entity string, artifacts ...string) Outcome {
	return Outcome{Entity: entity, Artifacts: artifacts}
}

// Failed returns an error outcome.
func Failed(entity string, err error) Outcome {
	return Outcome{Entity: entity, Err: err}
}

// OK reports whether the entity was processed successfully.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// DispatchResult holds one outcome per dispatched item, in item order.
type DispatchResult []Outcome

// FailedCount returns the number of failed outcomes.
func (r DispatchResult) FailedCount() int {
	var n int
	for _, o := range r {
		if !o.OK() {
			n++
		}
	}
	return n
}

// Err joins the errors of all failed outcomes. It returns nil when every
// entity succeeded.
func (r DispatchResult) Err() error {
	var errs []error
	for _, o := range r {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}
