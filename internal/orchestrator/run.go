package orchestrator

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"arrmada/internal/remote"
	"arrmada/pkg/logging"
)

// StepStatus classifies the outcome of one convergence step.
type StepStatus string

const (
	// StatusOK means the step found nothing to change.
	StatusOK StepStatus = "ok"

	// StatusChanged means the step converged something.
	StatusChanged StepStatus = "changed"

	// StatusFailed means the step did not complete. Failed steps are
	// advisory unless the run was aborted.
	StatusFailed StepStatus = "failed"

	// StatusSkipped means the step was not applicable to this config.
	StatusSkipped StepStatus = "skipped"
)

// StepResult is the recorded outcome of one step.
type StepResult struct {
	Name   string
	Status StepStatus
	Detail string
}

// Run accumulates the outcome of one convergence pass.
type Run struct {
	ID      string
	Started time.Time
	Results []StepResult

	fatal error
}

func newRun() *Run {
	return &Run{ID: uuid.NewString(), Started: time.Now()}
}

// Err returns the error that aborted the run, or nil.
func (r *Run) Err() error { return r.fatal }

// Failed counts the steps that did not complete.
func (r *Run) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			n++
		}
	}
	return n
}

// Changed counts the steps that converged something.
func (r *Run) Changed() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == StatusChanged {
			n++
		}
	}
	return n
}

func (r *Run) add(name string, status StepStatus, detail string) {
	r.Results = append(r.Results, StepResult{Name: name, Status: status, Detail: detail})
}

// record translates a step outcome into a result entry. Errors are
// logged here so steps don't have to.
func (r *Run) record(name string, rec remote.ChangeRecord, err error) {
	switch {
	case err != nil:
		logging.Error(subsystem, err, "Step %q failed", name)
		r.add(name, StatusFailed, err.Error())
	case rec.Changed:
		r.add(name, StatusChanged, rec.Description)
	default:
		r.add(name, StatusOK, rec.Description)
	}
}

func (r *Run) skip(name, reason string) {
	logging.Debug(subsystem, "Step %q skipped: %s", name, reason)
	r.add(name, StatusSkipped, reason)
}

// abort marks the run as fatally failed. The pass stops after the
// current phase.
func (r *Run) abort(name string, err error) error {
	wrapped := fmt.Errorf("%s: %w", name, err)
	logging.Error(subsystem, err, "Aborting run %s at step %q", r.ID, name)
	r.add(name, StatusFailed, err.Error())
	r.fatal = wrapped
	return wrapped
}
