// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Step structure, the atomic unit of work within a
// Scenario, and the Keyword set used to match steps against definitions.
package model

import (
	"fmt"
	"strings"
)

// Keyword is a step keyword. The zero value matches any keyword when used on a
// step definition.
type Keyword string

const (
	Any   Keyword = ""
	Given Keyword = "Given"
	When  Keyword = "When"
	Then  Keyword = "Then"
	And   Keyword = "And"
	But   Keyword = "But"
)

// ParseKeyword trims the raw keyword as it appears in a feature file. Unknown
// keywords (localized dialects, "*") are kept verbatim so that only wildcard
// definitions can match them.
func ParseKeyword(raw string) Keyword {
	return Keyword(strings.TrimSpace(raw))
}

// String returns the keyword, or "*" for the wildcard.
func (k Keyword) String() string {
	if k == Any {
		return "*"
	}
	return string(k)
}

// Step is a single declarative line within a Scenario.
type Step struct {
	Keyword Keyword
	Text    string
	Line    int
}

// String renders the step the way it appears in a feature file.
func (s Step) String() string {
	return fmt.Sprintf("%s %s", s.Keyword, s.Text)
}
