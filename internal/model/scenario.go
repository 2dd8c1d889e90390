package model

import "fmt"

// Scenario is one concrete instantiation of a test case. It is immutable once
// built.
type Scenario struct {
	// ID is the upstream identifier of the scenario (pickle id).
	ID string
	// Name is the human-readable scenario name.
	Name string
	// URI is the resource the scenario was loaded from.
	URI string
	// Line is the source line of the scenario (or outline) keyword.
	Line int
	// Tags holds the scenario tags, including inherited feature tags.
	Tags []string
	// Steps is the ordered step list with background steps prepended.
	Steps []Step

	// Outline is set when the scenario was instantiated from an outline
	// template. ExampleLine is then the source line of its example row.
	Outline     *Outline
	ExampleLine int
}

// IsOutline reports whether the scenario was instantiated from an outline.
func (s *Scenario) IsOutline() bool {
	return s.Outline != nil
}

// HasTag reports whether the scenario carries the given tag. The leading "@"
// is optional on both sides.
func (s *Scenario) HasTag(tag string) bool {
	want := trimTag(tag)
	for _, t := range s.Tags {
		if trimTag(t) == want {
			return true
		}
	}
	return false
}

// Location renders "uri:line" for diagnostics.
func (s *Scenario) Location() string {
	return fmt.Sprintf("%s:%d", s.URI, s.Line)
}

func trimTag(t string) string {
	if len(t) > 0 && t[0] == '@' {
		return t[1:]
	}
	return t
}
