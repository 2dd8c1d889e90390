package outline

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/vk/stepgrid/internal/catalog"
	"github.com/vk/stepgrid/internal/convert"
	"github.com/vk/stepgrid/internal/model"
)

// ErrInconsistentOutline reports an outline scenario whose example row cannot
// be located unambiguously. It points at a defect in the upstream compiler.
var ErrInconsistentOutline = errors.New("inconsistent outline")

// Binder turns capture groups into typed call arguments.
type Binder struct {
	conv convert.Service
}

// NewBinder creates a Binder backed by the given conversion service.
func NewBinder(conv convert.Service) *Binder {
	return &Binder{conv: conv}
}

// Bind returns the ordered argument list for invoking res against st.
func (b *Binder) Bind(sc *model.Scenario, st model.Step, res *catalog.Resolved) ([]reflect.Value, error) {
	if res.Unimplemented() {
		return nil, fmt.Errorf("cannot bind arguments for unimplemented step %q", st.Text)
	}

	var row map[string]string
	if sc != nil && sc.IsOutline() {
		var err error
		if row, err = exampleRow(sc); err != nil {
			return nil, err
		}
	}

	params := res.Definition.Params()
	args := make([]reflect.Value, len(params))
	for i, g := range res.Groups {
		pt := params[i]
		if !g.Matched {
			args[i] = reflect.Zero(pt)
			continue
		}

		raw := g.Value
		if row != nil {
			if key, ok := placeholder(raw); ok {
				if cell, found := row[key]; found {
					raw = cell
				}
			}
		}

		v, err := b.conv.Convert(raw, pt)
		if err != nil {
			return nil, fmt.Errorf("argument %d of %q: %w", i+1, st.Text, err)
		}
		args[i] = v
	}
	return args, nil
}

// exampleRow locates the single example row whose line equals the scenario's
// instantiation line and returns it keyed by the table header.
func exampleRow(sc *model.Scenario) (map[string]string, error) {
	type match struct {
		table *model.ExampleTable
		row   *model.ExampleRow
	}
	var found []match
	for ti := range sc.Outline.Examples {
		table := &sc.Outline.Examples[ti]
		for ri := range table.Rows {
			if table.Rows[ri].Line == sc.ExampleLine {
				found = append(found, match{table: table, row: &table.Rows[ri]})
			}
		}
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: scenario %s has no example row at line %d", ErrInconsistentOutline, sc.Location(), sc.ExampleLine)
	case 1:
	default:
		return nil, fmt.Errorf("%w: scenario %s has %d example rows at line %d", ErrInconsistentOutline, sc.Location(), len(found), sc.ExampleLine)
	}

	table, row := found[0].table, found[0].row
	if len(table.Header) != len(row.Cells) {
		return nil, fmt.Errorf("example table at line %d: header has %d columns but row at line %d has %d", table.Line, len(table.Header), row.Line, len(row.Cells))
	}

	values := make(map[string]string, len(table.Header))
	for i, key := range table.Header {
		values[key] = row.Cells[i]
	}
	return values, nil
}

// placeholder reports whether s is exactly one <key> token.
func placeholder(s string) (string, bool) {
	if len(s) < 3 || !strings.HasPrefix(s, "<") || !strings.HasSuffix(s, ">") {
		return "", false
	}
	key := s[1 : len(s)-1]
	if strings.ContainsAny(key, "<>") {
		return "", false
	}
	return key, true
}
