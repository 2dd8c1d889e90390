package result

import (
	"time"

	"github.com/google/uuid"
	"github.com/vk/stepgrid/internal/model"
)

// Status is the outcome of a step or scenario.
type Status int

const (
	Passed Status = iota
	Failed
	Skipped
)

func (s Status) String() string {
	switch s {
	case Passed:
		return "PASSED"
	case Failed:
		return "FAILED"
	case Skipped:
		return "SKIPPED"
	default:
		return "UNKNOWN"
	}
}

// Step is the result of one step. It is written only by the engine while the
// step runs.
type Step struct {
	Step model.Step
	// Definition names the resolved target, empty when unimplemented.
	Definition string
	Start      time.Time
	End        time.Time
	Status     Status
	Err        error
	Artifacts  []Artifact
}

// Duration returns the step's wall time.
func (s *Step) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Scenario aggregates the step results of one scenario run.
type Scenario struct {
	ID       uuid.UUID
	Scenario *model.Scenario
	Steps    []*Step
	Start    time.Time
	End      time.Time
}

// NewScenario creates an empty result for sc.
func NewScenario(sc *model.Scenario) *Scenario {
	return &Scenario{ID: uuid.New(), Scenario: sc}
}

// Status returns the first non-passed step status, or Passed.
func (r *Scenario) Status() Status {
	for _, s := range r.Steps {
		if s.Status != Passed {
			return s.Status
		}
	}
	return Passed
}

// Duration returns the scenario's wall time.
func (r *Scenario) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Last returns the most recent step result, or nil.
func (r *Scenario) Last() *Step {
	if len(r.Steps) == 0 {
		return nil
	}
	return r.Steps[len(r.Steps)-1]
}

// Counts returns the number of steps per status.
func (r *Scenario) Counts() map[Status]int {
	counts := make(map[Status]int, 3)
	for _, s := range r.Steps {
		counts[s.Status]++
	}
	return counts
}

// ScenarioID implements scope.Identified.
func (r *Scenario) ScenarioID() string {
	if r.Scenario == nil {
		return ""
	}
	return r.Scenario.ID
}

// ResultID implements scope.Identified.
func (r *Scenario) ResultID() string {
	return r.ID.String()
}
