package gherkin

import (
	"fmt"

	messages "github.com/cucumber/messages/go/v21"
	"github.com/vk/stepgrid/internal/model"
)

// index maps AST node ids to the nodes pickles refer to.
type index struct {
	steps     map[string]*messages.Step
	scenarios map[string]*messages.Scenario
	rows      map[string]*messages.TableRow
}

func newIndex(f *messages.Feature) *index {
	idx := &index{
		steps:     make(map[string]*messages.Step),
		scenarios: make(map[string]*messages.Scenario),
		rows:      make(map[string]*messages.TableRow),
	}
	for _, child := range f.Children {
		idx.addChild(child.Background, child.Scenario)
		if child.Rule != nil {
			for _, rc := range child.Rule.Children {
				idx.addChild(rc.Background, rc.Scenario)
			}
		}
	}
	return idx
}

func (idx *index) addChild(bg *messages.Background, sc *messages.Scenario) {
	if bg != nil {
		for _, st := range bg.Steps {
			idx.steps[st.Id] = st
		}
	}
	if sc != nil {
		idx.scenarios[sc.Id] = sc
		for _, st := range sc.Steps {
			idx.steps[st.Id] = st
		}
		for _, ex := range sc.Examples {
			for _, row := range ex.TableBody {
				idx.rows[row.Id] = row
			}
		}
	}
}

func (idx *index) scenario(p *messages.Pickle, uri string) (*model.Scenario, error) {
	if len(p.AstNodeIds) == 0 {
		return nil, fmt.Errorf("pickle %q has no AST reference", p.Name)
	}
	astScenario, ok := idx.scenarios[p.AstNodeIds[0]]
	if !ok {
		return nil, fmt.Errorf("pickle %q refers to unknown scenario %s", p.Name, p.AstNodeIds[0])
	}

	sc := &model.Scenario{
		ID:   p.Id,
		Name: p.Name,
		URI:  uri,
		Line: int(astScenario.Location.Line),
	}
	for _, tag := range p.Tags {
		sc.Tags = append(sc.Tags, tag.Name)
	}

	outlined := len(p.AstNodeIds) > 1
	if outlined {
		row, ok := idx.rows[p.AstNodeIds[1]]
		if !ok {
			return nil, fmt.Errorf("pickle %q refers to unknown example row %s", p.Name, p.AstNodeIds[1])
		}
		sc.ExampleLine = int(row.Location.Line)
		sc.Outline = outline(astScenario)
	}

	for _, ps := range p.Steps {
		if len(ps.AstNodeIds) == 0 {
			return nil, fmt.Errorf("pickle step %q has no AST reference", ps.Text)
		}
		astStep, ok := idx.steps[ps.AstNodeIds[0]]
		if !ok {
			return nil, fmt.Errorf("pickle step %q refers to unknown step %s", ps.Text, ps.AstNodeIds[0])
		}
		text := ps.Text
		if outlined {
			text = astStep.Text
		}
		sc.Steps = append(sc.Steps, model.Step{
			Keyword: model.ParseKeyword(astStep.Keyword),
			Text:    text,
			Line:    int(astStep.Location.Line),
		})
	}
	return sc, nil
}

func outline(sc *messages.Scenario) *model.Outline {
	o := &model.Outline{Name: sc.Name, Line: int(sc.Location.Line)}
	for _, ex := range sc.Examples {
		table := model.ExampleTable{Name: ex.Name, Line: int(ex.Location.Line)}
		if ex.TableHeader != nil {
			table.Header = cells(ex.TableHeader)
		}
		for _, row := range ex.TableBody {
			table.Rows = append(table.Rows, model.ExampleRow{Line: int(row.Location.Line), Cells: cells(row)})
		}
		o.Examples = append(o.Examples, table)
	}
	return o
}

func cells(row *messages.TableRow) []string {
	out := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		out[i] = c.Value
	}
	return out
}
