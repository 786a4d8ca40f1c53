package cfg

// Ordering is a depth-first numbering of the program graph.
type Ordering struct {
	// Rank maps a node id to its reverse-postorder position. Nodes not
	// reachable from the root are ranked after every reachable node, by id.
	Rank []int
	// Order lists node ids by increasing rank.
	Order []int
	// TreeEdges holds the ids of the edges of the depth-first spanning tree,
	// in discovery order.
	TreeEdges []int
	// Reachable counts the nodes visited from the root.
	Reachable int
}

type dfsFrame struct {
	node *Node
	next int
}

// DepthFirst walks the graph from the entry point, or from the terminal point
// following incoming edges when reverse is set. Sibling edges are visited in
// construction order, so the result is deterministic. The walk uses an
// explicit stack and a countdown counter: a node is numbered when its last
// successor has been explored.
func DepthFirst(g *ProgramGraph, reverse bool) *Ordering {
	n := len(g.Nodes)
	ord := &Ordering{Rank: make([]int, n), Order: make([]int, n)}
	if n == 0 {
		return ord
	}

	root := g.Entry()
	if reverse {
		root = g.Terminal()
	}
	adjacent := func(v *Node) []*Edge {
		if reverse {
			return v.In
		}
		return v.Out
	}
	across := func(e *Edge) *Node {
		if reverse {
			return e.From
		}
		return e.To
	}

	visited := make([]bool, n)
	postorder := make([]int, n)
	for i := range postorder {
		postorder[i] = -1
	}
	counter := n - 1

	visited[root.ID] = true
	stack := []dfsFrame{{node: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		edges := adjacent(top.node)
		if top.next < len(edges) {
			e := edges[top.next]
			top.next++
			if w := across(e); !visited[w.ID] {
				visited[w.ID] = true
				ord.TreeEdges = append(ord.TreeEdges, e.ID)
				stack = append(stack, dfsFrame{node: w})
			}
			continue
		}
		postorder[top.node.ID] = counter
		counter--
		stack = stack[:len(stack)-1]
	}

	// shift reachable ranks to start at zero, then append the rest by id
	offset := counter + 1
	ord.Reachable = n - offset
	next := ord.Reachable
	for id, r := range postorder {
		if r >= 0 {
			ord.Rank[id] = r - offset
		} else {
			ord.Rank[id] = next
			next++
		}
	}
	for id, r := range ord.Rank {
		ord.Order[r] = id
	}
	return ord
}
