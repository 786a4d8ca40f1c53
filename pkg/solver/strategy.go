package solver

import (
	"container/list"
	"fmt"
	"sort"

	"github.com/l3aro/microc-analysis/pkg/cfg"
)

// Strategy selects which pending node a worklist run processes next.
type Strategy string

const (
	FIFO       Strategy = "fifo"        // arrival order
	LIFO       Strategy = "lifo"        // most recent first
	RoundRobin Strategy = "round-robin" // passes in reverse postorder
)

// Strategies lists the supported strategies.
func Strategies() []Strategy { return []Strategy{FIFO, LIFO, RoundRobin} }

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	for _, st := range Strategies() {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown worklist strategy %q", s)
}

// frontier is a set of pending nodes. Pushing a node that is already
// pending is a no-op.
type frontier interface {
	push(id int)
	pop() (int, bool)
}

func newFrontier(s Strategy, g *cfg.ProgramGraph, reverse bool) (frontier, error) {
	n := len(g.Nodes)
	switch s {
	case FIFO:
		return &queue{items: list.New(), pending: make([]bool, n)}, nil
	case LIFO:
		return &stack{pending: make([]bool, n)}, nil
	case RoundRobin:
		return &roundRobin{rank: cfg.DepthFirst(g, reverse).Rank, pending: make([]bool, n)}, nil
	}
	return nil, fmt.Errorf("unknown worklist strategy %q", s)
}

type queue struct {
	items   *list.List
	pending []bool
}

func (q *queue) push(id int) {
	if q.pending[id] {
		return
	}
	q.pending[id] = true
	q.items.PushBack(id)
}

func (q *queue) pop() (int, bool) {
	if q.items.Len() == 0 {
		return 0, false
	}
	id := q.items.Remove(q.items.Front()).(int)
	q.pending[id] = false
	return id, true
}

type stack struct {
	items   []int
	pending []bool
}

func (s *stack) push(id int) {
	if s.pending[id] {
		return
	}
	s.pending[id] = true
	s.items = append(s.items, id)
}

func (s *stack) pop() (int, bool) {
	if len(s.items) == 0 {
		return 0, false
	}
	id := s.items[len(s.items)-1]
	s.items = s.items[:len(s.items)-1]
	s.pending[id] = false
	return id, true
}

// roundRobin drains one pass at a time. Nodes pushed while a pass is being
// drained wait for the next pass, which is sorted by reverse-postorder rank,
// unless they are still waiting in the current one.
type roundRobin struct {
	rank     []int
	draining []int
	next     []int
	pending  []bool
}

func (r *roundRobin) push(id int) {
	if r.pending[id] {
		return
	}
	r.pending[id] = true
	r.next = append(r.next, id)
}

func (r *roundRobin) pop() (int, bool) {
	if len(r.draining) == 0 {
		if len(r.next) == 0 {
			return 0, false
		}
		r.draining, r.next = r.next, r.draining[:0]
		sort.Slice(r.draining, func(i, j int) bool { return r.rank[r.draining[i]] < r.rank[r.draining[j]] })
	}
	id := r.draining[0]
	r.draining = r.draining[1:]
	r.pending[id] = false
	return id, true
}
