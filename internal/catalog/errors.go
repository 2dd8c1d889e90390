package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vk/stepgrid/internal/model"
)

var (
	// ErrAmbiguousStep matches every AmbiguousStepError.
	ErrAmbiguousStep = errors.New("ambiguous step")
	// ErrUnimplementedStep matches every UnimplementedStepError. Step targets
	// may also return it (wrapped or not) to mark themselves as pending.
	ErrUnimplementedStep = errors.New("unimplemented step")
)

// StepRef identifies a step instance for diagnostics.
type StepRef struct {
	ScenarioID string
	URI        string
	Line       int
	Keyword    model.Keyword
	Text       string
}

func newStepRef(sc *model.Scenario, st model.Step) StepRef {
	ref := StepRef{Line: st.Line, Keyword: st.Keyword, Text: st.Text}
	if sc != nil {
		ref.ScenarioID = sc.ID
		ref.URI = sc.URI
	}
	return ref
}

func (r StepRef) String() string {
	return fmt.Sprintf("%s:%d [%s] %s %s", r.URI, r.Line, r.ScenarioID, r.Keyword, r.Text)
}

// AmbiguousStepError reports that more than one definition matched a step.
type AmbiguousStepError struct {
	StepRef
	Candidates []*Definition
}

func (e *AmbiguousStepError) Error() string {
	lines := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		lines[i] = c.String()
	}
	return fmt.Sprintf("ambiguous step %s matches %d definitions:\n- %s", e.StepRef, len(e.Candidates), strings.Join(lines, "\n- "))
}

func (e *AmbiguousStepError) Is(target error) bool {
	return target == ErrAmbiguousStep
}

// UnimplementedStepError reports that no definition matched a step.
type UnimplementedStepError struct {
	StepRef
}

func (e *UnimplementedStepError) Error() string {
	return fmt.Sprintf("unimplemented step %s", e.StepRef)
}

func (e *UnimplementedStepError) Is(target error) bool {
	return target == ErrUnimplementedStep
}

// NewUnimplementedStepError describes st in sc as unimplemented.
func NewUnimplementedStepError(sc *model.Scenario, st model.Step) *UnimplementedStepError {
	return &UnimplementedStepError{StepRef: newStepRef(sc, st)}
}
