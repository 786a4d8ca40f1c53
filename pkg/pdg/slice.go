package pdg

import (
	"container/list"

	"golang.org/x/exp/slices"
)

// BackwardSlice returns the edges that may affect the action on edge, in
// ascending order, edge itself included. If variable is given, only data
// dependences on that variable are followed. Control dependences are always
// followed.
func (p *Graph) BackwardSlice(edge int, variable *string) []int {
	return p.slice(edge, variable, true)
}

// ForwardSlice returns the edges the action on edge may affect.
func (p *Graph) ForwardSlice(edge int, variable *string) []int {
	return p.slice(edge, variable, false)
}

func (p *Graph) slice(edge int, variable *string, backward bool) []int {
	if p == nil || p.Program == nil || edge < 0 || edge >= len(p.Program.Edges) {
		return nil
	}
	adj, next := p.outgoing, func(d Dependence) int { return d.To }
	if backward {
		adj, next = p.incoming, func(d Dependence) int { return d.From }
	}

	visited := map[int]bool{edge: true}
	queue := list.New()
	queue.PushBack(edge)
	result := make([]int, 0)

	for queue.Len() > 0 {
		current := queue.Remove(queue.Front()).(int)
		result = append(result, current)

		for _, d := range adj[current] {
			if variable != nil && d.Type == DepTypeData && d.Label != *variable {
				continue
			}
			n := next(d)
			if visited[n] {
				continue
			}
			visited[n] = true
			queue.PushBack(n)
		}
	}

	slices.Sort(result)
	return result
}

// Dependencies returns the dependences into and out of one edge.
func (p *Graph) Dependencies(edge int) DependencyInfo {
	var info DependencyInfo
	if p == nil {
		return info
	}
	for _, d := range p.incoming[edge] {
		if d.Type == DepTypeControl {
			info.ControlIn = append(info.ControlIn, d)
		} else {
			info.DataIn = append(info.DataIn, d)
		}
	}
	for _, d := range p.outgoing[edge] {
		if d.Type == DepTypeControl {
			info.ControlOut = append(info.ControlOut, d)
		} else {
			info.DataOut = append(info.DataOut, d)
		}
	}
	return info
}

// VariableNames returns the variables carried by data dependences, sorted.
func (p *Graph) VariableNames() []string {
	var names []string
	if p == nil {
		return names
	}
	for _, d := range p.Deps {
		if d.Type == DepTypeData && !slices.Contains(names, d.Label) {
			names = append(names, d.Label)
		}
	}
	slices.Sort(names)
	return names
}
