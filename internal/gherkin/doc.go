// Package gherkin loads .feature files and compiles them into model
// scenarios using the cucumber gherkin parser.
//
// Pickles supply the scenario list, tags and step order with background steps
// already prepended. Step keywords and, for outlines, the template step text
// come from the AST so that <placeholder> tokens reach the outline binder
// untouched. Outline scenarios also carry every example table and the line of
// the row they were built from.
package gherkin
