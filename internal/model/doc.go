// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model provides the immutable Go representation of the scenarios
// that stepgrid executes. It is the boundary between the upstream feature
// compiler and the execution core.
//
// # Core Concepts
//
//   - Scenario: One concrete test case with a fully resolved, ordered list of
//     steps. Background steps are already prepended by the time a Scenario
//     reaches the engine.
//
//   - Step: A single declarative line (Given/When/Then/And/But) with its
//     trimmed keyword, text and source line.
//
//   - Outline: The template a Scenario was instantiated from, together with all
//     of its example tables. A Scenario built from an outline also records the
//     source line of the example row it represents.
//
// Why a separate model package?
//
// The catalog, the outline binder and the engine all need the same read-only
// view of a scenario, but none of them should know how feature files are
// parsed. Keeping the shape here lets the gherkin adapter, the tests and any
// other producer build scenarios without pulling in the execution packages.
package model
