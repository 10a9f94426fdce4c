// Package dot renders graph definitions as Graphviz DOT for inspection
// and documentation.
package dot

import (
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"

	"github.com/aretw0/rill/pkg/domain"
)

// Export renders a graph definition as a DOT digraph. Terminal nodes
// are drawn as double circles, the entry node is marked bold, and edge
// labels show the condition predicate.
func Export(def domain.GraphDefinition) (string, error) {
	name := "workflow"
	g := gographviz.NewGraph()
	if err := g.SetName(name); err != nil {
		return "", err
	}
	if err := g.SetDir(true); err != nil {
		return "", err
	}

	for _, n := range def.Nodes {
		attrs := map[string]string{
			"label": strconv.Quote(n.ID),
			"shape": "box",
		}
		if n.IsTerminal() {
			attrs["shape"] = "doublecircle"
		}
		if n.ID == def.EntryNodeID {
			attrs["style"] = "bold"
		}
		if err := g.AddNode(name, strconv.Quote(n.ID), attrs); err != nil {
			return "", err
		}
	}

	for _, e := range def.Edges {
		attrs := map[string]string{}
		if e.Condition != nil {
			op := e.Condition.Op
			if op == "" {
				op = domain.OpEq
			}
			attrs["label"] = strconv.Quote(fmt.Sprintf("%s %s %v", e.Condition.Key, op, e.Condition.Value))
		}
		if e.Priority != 0 {
			attrs["taillabel"] = strconv.Quote(strconv.Itoa(e.Priority))
		}
		if err := g.AddEdge(strconv.Quote(e.From), strconv.Quote(e.To), true, attrs); err != nil {
			return "", err
		}
	}

	return g.String(), nil
}
