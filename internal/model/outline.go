package model

// Outline is the template metadata of a scenario outline.
type Outline struct {
	Name     string
	Line     int
	Examples []ExampleTable
}

// ExampleTable is one Examples block of an outline. Header holds the column
// names used as placeholder keys.
type ExampleTable struct {
	Name   string
	Line   int
	Header []string
	Rows   []ExampleRow
}

// ExampleRow is one data row of an example table.
type ExampleRow struct {
	Line  int
	Cells []string
}
